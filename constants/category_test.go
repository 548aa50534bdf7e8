package constants

import "testing"

func TestCategorize(t *testing.T) {
	cases := []struct {
		name string
		want Category
	}{
		{"Ground Beef 80/20", Protein},
		{"Atlantic Salmon Fillet", Protein},
		{"Organic Tofu", Protein},
		{"Whole Milk", Dairy},
		{"Shredded Cheddar Cheese", Dairy},
		{"Baby Spinach", Vegetable},
		{"Roma Tomatoes", Vegetable},
		{"Bananas", Fruit},
		{"Jasmine Rice", Grain},
		{"All-Purpose Flour", Grain},
		{"Cold Brew Coffee", Beverage},
		{"Paper Napkins", Other},
		{"", Other},
		{"   ", Other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Categorize(tc.name); got != tc.want {
				t.Errorf("Categorize(%q) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

// "milk powder" matches both a dairy keyword and a grain keyword; the dairy
// rule is checked first so it must win.
func TestCategorizePrecedence(t *testing.T) {
	cases := []struct {
		name string
		want Category
	}{
		{"Milk Powder", Dairy},
		{"Chicken and Rice Blend", Protein},
		{"Vegetable Juice", Vegetable},
		{"Fruit Tea", Fruit},
	}
	for _, tc := range cases {
		if got := Categorize(tc.name); got != tc.want {
			t.Errorf("Categorize(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCategorizeIsPure(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := Categorize("Milk Powder"); got != Dairy {
			t.Fatalf("call %d: Categorize changed its answer: %v", i, got)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Ground Beef  ", "ground beef"},
		{"All-Purpose Flour", "all purpose flour"},
		{"80/20 Blend", "80 20 blend"},
		{"Tomatoes, Diced (Canned)", "tomatoes diced canned"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"protein", Protein, true},
		{"Proteins", Protein, true},
		{"seafood", Protein, true},
		{"veggies", Vegetable, true},
		{"produce", Vegetable, true},
		{"bakery", Grain, true},
		{"drinks", Beverage, true},
		{"other", Other, true},
		{"cleaning supplies", Other, false},
		{"", Other, false},
	}
	for _, tc := range cases {
		got, ok := Canonicalize(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Canonicalize(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
