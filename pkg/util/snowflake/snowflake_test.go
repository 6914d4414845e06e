package snowflake

import "testing"

func TestNewGeneratorRange(t *testing.T) {
	for _, id := range []int64{-1, 1024} {
		if _, err := NewGenerator(id); err == nil {
			t.Fatalf("NewGenerator(%d) should fail", id)
		}
	}
}

func TestNextIsIncreasing(t *testing.T) {
	gen, err := NewGenerator(3)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	prev := gen.Next()
	for i := 0; i < 1000; i++ {
		id := gen.Next()
		if id <= prev {
			t.Fatalf("id %d not greater than %d", id, prev)
		}
		prev = id
	}
}
