package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/kevinaugment/calcengine/cache"
	"github.com/kevinaugment/calcengine/calc"
)

func ExampleNewMemoryStore() {
	store := cache.NewMemoryStore(cache.DefaultPolicy())
	defer store.Close()

	ctx := context.Background()

	_ = store.Set(ctx, "calc:steel-cut:abc", &calc.Result{Value: 42.5, Unit: "USD"}, 5*time.Minute)

	if result, ok := store.Get(ctx, "calc:steel-cut:abc"); ok {
		fmt.Printf("%.2f %s\n", result.Value, result.Unit)
	}
	// Output:
	// 42.50 USD
}

func ExampleDefaultKeyer_Key() {
	keyer := cache.NewDefaultKeyer()

	// Key derivation is order-independent: both maps hash identically.
	a, _ := keyer.Key("steel-cut", calc.InputMap{"thickness": 3.0, "material": "steel"}, nil)
	b, _ := keyer.Key("steel-cut", calc.InputMap{"material": "steel", "thickness": 3.0}, nil)

	fmt.Println(a == b)
	// Output:
	// true
}
