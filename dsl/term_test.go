package dsl

import (
	"strings"
	"testing"
)

func TestLiteralMatchesExactly(t *testing.T) {
	term := Literal("hello")
	ok, err := Matches(term, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected literal to match itself")
	}
	if ok, _ := Matches(term, "hello world"); ok {
		t.Fatal("expected literal not to match a superstring")
	}
}

func TestLiteralEscapesMetacharacters(t *testing.T) {
	term := Literal("a.b*c")
	ok, err := Matches(term, "a.b*c")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected escaped literal to match its exact text")
	}
	if ok, _ := Matches(term, "axbxxc"); ok {
		t.Fatal("metacharacters in a Literal must not behave as regex syntax")
	}
}

func TestSeqConcatenatesInOrder(t *testing.T) {
	term := Seq(Literal("foo"), Literal("bar"))
	ok, err := Matches(term, "foobar")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected Seq to match its concatenation")
	}
}

func TestEitherMatchesAnyAlternative(t *testing.T) {
	term := Either(Literal("cat"), Literal("dog"))
	for _, s := range []string{"cat", "dog"} {
		if ok, err := Matches(term, s); err != nil || !ok {
			t.Fatalf("expected %q to match, got ok=%v err=%v", s, ok, err)
		}
	}
	if ok, _ := Matches(term, "bird"); ok {
		t.Fatal("expected non-alternative to be rejected")
	}
}

func TestQuantifiers(t *testing.T) {
	cases := []struct {
		name  string
		term  Term
		match string
		miss  string
	}{
		{"ZeroOrMore", Literal("a").ZeroOrMore(), "aaa", "b"},
		{"OneOrMore", Literal("a").OneOrMore(), "a", ""},
		{"Optional", Literal("a").Optional(), "", "aa"},
		{"Exactly", Literal("a").Exactly(3), "aaa", "aa"},
		{"Between", Literal("a").Between(2, 3), "aa", "a"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if ok, err := Matches(c.term, c.match); err != nil || !ok {
				t.Fatalf("expected %q to match, got ok=%v err=%v", c.match, ok, err)
			}
			if ok, err := Matches(c.term, c.miss); err != nil || ok {
				t.Fatalf("expected %q not to match, got ok=%v err=%v", c.miss, ok, err)
			}
		})
	}
}

func TestOneOrMoreRejectsEmpty(t *testing.T) {
	term := Literal("a").OneOrMore()
	ok, err := Matches(term, "")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("OneOrMore must reject the empty string")
	}
}

func TestBetweenRejectsOutOfRange(t *testing.T) {
	term := Literal("a").Between(2, 3)
	if ok, _ := Matches(term, "aaaa"); ok {
		t.Fatal("expected four repetitions to exceed Between(2,3)")
	}
}

func TestRepeatMaxLessThanMinIsInvalid(t *testing.T) {
	term := Literal("a").Between(5, 2)
	if _, err := ToRegex(term); err == nil {
		t.Fatal("expected an error for max < min")
	}
}

func TestValidateReturnsPatternMismatch(t *testing.T) {
	term := Literal("a")
	err := Validate(term, "b")
	if err == nil {
		t.Fatal("expected Validate to fail")
	}
}

func TestPrettyPrintShowsStructure(t *testing.T) {
	term := Seq(Literal("a"), Either(Literal("b"), Literal("c")))
	out := PrettyPrint(term)
	if !strings.Contains(out, "Seq") || !strings.Contains(out, "Either") {
		t.Fatalf("expected tree to name its nodes, got:\n%s", out)
	}
}

func TestFromGoValueScalars(t *testing.T) {
	term, err := FromGoValue("hi")
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := Matches(term, `"hi"`); !ok {
		t.Fatal("expected string to lower to its JSON-quoted literal")
	}
}

func TestFromGoValueRecursionLimit(t *testing.T) {
	var nest any = "leaf"
	for i := 0; i < fromGoValueMaxDepth+5; i++ {
		nest = []any{nest}
	}
	if _, err := FromGoValue(nest); err == nil {
		t.Fatal("expected a recursion-limit error for a deeply nested value")
	}
}
