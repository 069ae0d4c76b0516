package main

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultCatalogParses(t *testing.T) {
	c, err := parseCatalog(defaultCatalog)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Speed) == 0 || len(c.Boost) == 0 || len(c.Fish) == 0 {
		t.Fatalf("catalog has empty sections: %+v", c)
	}
	if !c.Fish[0].PriceTON.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("fish price = %s", c.Fish[0].PriceTON)
	}
	for i := 1; i < len(c.Speed); i++ {
		if c.Speed[i].Speed <= c.Speed[i-1].Speed {
			t.Fatalf("speed ladder must increase: %+v", c.Speed)
		}
	}
}

func TestValidateCatalogRejects(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
[[speed]]
id = 1
speed = 2
price = "1"
[[speed]]
id = 1
speed = 3
price = "2"
`,
		"zero duration": `
[[boost]]
id = 1
speed = 2
duration = 0
fish_price = "10"
`,
		"bad price": `
[[speed]]
id = 1
speed = 2
price = "abc"
`,
	}
	for name, raw := range cases {
		if _, err := parseCatalog([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
