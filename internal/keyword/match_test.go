package keyword

import (
	"encoding/json"
	"testing"
)

func TestMatch_EveryAliasResolves(t *testing.T) {
	t.Parallel()

	for _, c := range Categories {
		for alias, canonical := range Aliases(c) {
			ev, ok := Match(alias)
			if !ok {
				t.Errorf("Match(%q) found nothing", alias)
				continue
			}
			if ev.Word != canonical || ev.Category != c {
				t.Errorf("Match(%q) = %s/%s, want %s/%s", alias, ev.Category, ev.Word, c, canonical)
			}
			want, _ := Weight(canonical)
			if ev.Weight != want {
				t.Errorf("Match(%q).Weight = %d, want %d", alias, ev.Weight, want)
			}
			if ev.Surface != alias {
				t.Errorf("Match(%q).Surface = %q", alias, ev.Surface)
			}
		}
	}
}

func TestMatch_CanonicalWordsAreAliases(t *testing.T) {
	t.Parallel()

	for _, c := range Categories {
		aliases := Aliases(c)
		for _, w := range Words(c) {
			if aliases[w] != w {
				t.Errorf("%s: canonical %q is not its own alias", c, w)
			}
			if _, ok := Weight(w); !ok {
				t.Errorf("%s: canonical %q has no weight", c, w)
			}
		}
	}
}

func TestMatch_Misses(t *testing.T) {
	t.Parallel()

	for _, tok := range []string{"", "hello", "Health", "health!", "heal"} {
		if ev, ok := Match(tok); ok {
			t.Errorf("Match(%q) = %+v, want no match", tok, ev)
		}
	}
}

func TestMatch_WeightsFromTables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word string
		want int
	}{
		{"health", 0}, {"character", 4}, {"personality", 8},
		{"love", 1}, {"romance", 2}, {"partnership", 3}, {"relationships", 4},
		{"job", 2}, {"work", 6}, {"money", 10}, {"career", 14},
		{"finance", 18}, {"success", 22}, {"profession", 26}, {"occupation", 30},
	}
	for _, tt := range tests {
		got, ok := Weight(tt.word)
		if !ok || got != tt.want {
			t.Errorf("Weight(%q) = %d, %v, want %d", tt.word, got, ok, tt.want)
		}
	}

	ev, _ := Match("relationship")
	if ev.Word != "relationships" || ev.Weight != 4 {
		t.Errorf("Match(relationship) = %+v, want relationships/4", ev)
	}
}

func TestWords_ReturnsCopy(t *testing.T) {
	t.Parallel()

	w := Words(Red)
	w[0] = "hate"
	if Words(Red)[0] != "love" {
		t.Error("Words exposed the internal slice")
	}

	a := Aliases(Red)
	delete(a, "love")
	if _, ok := Match("love"); !ok {
		t.Error("Aliases exposed the internal map")
	}
}

func TestBoostKeywords(t *testing.T) {
	t.Parallel()

	boosts := BoostKeywords()
	if len(boosts) != 15 {
		t.Fatalf("len = %d, want 15", len(boosts))
	}
	for _, b := range boosts {
		if _, ok := Weight(b.Keyword); !ok {
			t.Errorf("boost keyword %q is not canonical", b.Keyword)
		}
		if b.Boost != defaultBoost {
			t.Errorf("%q boost = %v, want %v", b.Keyword, b.Boost, defaultBoost)
		}
	}
}

func TestCategory_Text(t *testing.T) {
	t.Parallel()

	for _, c := range Categories {
		b, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("Marshal(%d): %v", int(c), err)
		}
		var back Category
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", b, err)
		}
		if back != c {
			t.Errorf("round trip of %s = %s", c, back)
		}
	}

	if got := Category(7).String(); got != "Category(7)" {
		t.Errorf("String() = %q", got)
	}
	if _, err := Category(7).MarshalText(); err == nil {
		t.Error("MarshalText(7) returned nil error")
	}
	var c Category
	if err := c.UnmarshalText([]byte("trimester")); err == nil {
		t.Error("UnmarshalText accepted a lower-case token")
	}
}

func TestMissingMessage(t *testing.T) {
	t.Parallel()

	if got := MissingMessage(nil); got != "" {
		t.Errorf("MissingMessage(nil) = %q, want empty", got)
	}

	got := MissingMessage([]Category{Trimester, Red})
	want := "Missing: Trimester (Health/Character/Personality), Red (Love/Romance/Partnership/Relationships)"
	if got != want {
		t.Errorf("MissingMessage = %q\nwant %q", got, want)
	}
}
