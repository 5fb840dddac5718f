package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"nutriscan/config"
	"nutriscan/testutil"
)

type fakeLLM struct {
	content string
	err     error
	calls   int
	last    ChatRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req ChatRequest) (string, error) {
	f.calls++
	f.last = req
	return f.content, f.err
}

func TestParseFoodItems(t *testing.T) {
	t.Run("prose around json", func(t *testing.T) {
		items := ParseFoodItems("Sure! Here you go:\n```json\n{\"food_items\":[{\"name\":\"tuxum\",\"quantity\":2,\"unit\":\"piece\",\"description\":\"tavla tuxum\"},{\"name\":\"kofe\",\"quantity\":1,\"unit\":\"cup\"}]}\n```")
		testutil.AssertEqual(t, len(items), 2)
		testutil.AssertEqual(t, items[0].Name, "tuxum")
		testutil.AssertFloat(t, items[0].Quantity, 2)
		testutil.AssertEqual(t, items[1].Unit, "cup")
	})
	t.Run("defaults", func(t *testing.T) {
		items := ParseFoodItems(`{"food_items":[{"name":"olma"},{"name":"non","quantity":null,"unit":""},{"name":"sut","quantity":0}]}`)
		testutil.AssertEqual(t, len(items), 3)
		for _, it := range items {
			testutil.AssertFloat(t, it.Quantity, 1)
			testutil.AssertEqual(t, it.Unit, "piece")
		}
	})
	t.Run("numeric string quantity", func(t *testing.T) {
		items := ParseFoodItems(`{"food_items":[{"name":"guruch","quantity":"1.5","unit":"cup"}]}`)
		testutil.AssertEqual(t, len(items), 1)
		testutil.AssertFloat(t, items[0].Quantity, 1.5)
	})
	t.Run("blank names skipped", func(t *testing.T) {
		items := ParseFoodItems(`{"food_items":[{"name":"  "},{"name":"choy","quantity":3}]}`)
		testutil.AssertEqual(t, len(items), 1)
		testutil.AssertEqual(t, items[0].Name, "choy")
	})

	bad := map[string]string{
		"no braces":          "I could not find any food",
		"broken json":        `{"food_items": [{"name": "tuxum"`,
		"not an array":       `{"food_items": "tuxum"}`,
		"missing key":        `{"foods": [{"name": "tuxum"}]}`,
		"non object entry":   `{"food_items": ["tuxum"]}`,
		"word quantity":      `{"food_items": [{"name": "tuxum", "quantity": "two"}]}`,
		"quantity with unit": `{"food_items": [{"name": "tuxum", "quantity": "2 pieces"}]}`,
		"bool quantity":      `{"food_items": [{"name": "tuxum", "quantity": true}]}`,
	}
	for name, content := range bad {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, len(ParseFoodItems(content)), 0)
		})
	}
}

func TestFallbackParse_QuantityCues(t *testing.T) {
	vocab := config.MustDefaultVocabulary()
	cases := map[string]float64{
		"tuxum":         1,
		"2 tuxum":       2,
		"ikki tuxum":    2,
		"uch tuxum":     3,
		"to'rt tuxum":   4,
		"besh tuxum":    5,
		"olti tuxum":    6,
		"yetti tuxum":   7,
		"sakkiz tuxum":  8,
		"to'qqiz tuxum": 9,
		"10 tuxum":      10,
		"o'n tuxum":     10,
	}
	for text, want := range cases {
		t.Run(text, func(t *testing.T) {
			items := FallbackParse(text, vocab)
			testutil.AssertEqual(t, len(items), 1)
			testutil.AssertEqual(t, items[0].Name, "tuxum")
			testutil.AssertEqual(t, items[0].Unit, "piece")
			testutil.AssertFloat(t, items[0].Quantity, want)
		})
	}
}

func TestFallbackParse_QuantityAppliesToEveryFood(t *testing.T) {
	vocab := config.MustDefaultVocabulary()

	items := FallbackParse("2 ta tuxum va kofe", vocab)
	testutil.AssertEqual(t, len(items), 2)
	testutil.AssertEqual(t, items[0].Name, "tuxum")
	testutil.AssertFloat(t, items[0].Quantity, 2)
	testutil.AssertEqual(t, items[1].Name, "kofe")
	testutil.AssertEqual(t, items[1].Unit, "cup")
	testutil.AssertFloat(t, items[1].Quantity, 2)

	items = FallbackParse("Tuxum va KOFE", vocab)
	testutil.AssertEqual(t, len(items), 2)
	testutil.AssertFloat(t, items[0].Quantity, 1)
	testutil.AssertFloat(t, items[1].Quantity, 1)
}

func TestFallbackParse_TableOrder(t *testing.T) {
	items := FallbackParse("kofe keyin tuxum", config.MustDefaultVocabulary())
	testutil.AssertEqual(t, len(items), 2)
	testutil.AssertEqual(t, items[0].Name, "tuxum")
	testutil.AssertEqual(t, items[1].Name, "kofe")
}

func TestFallbackParse_NoMatch(t *testing.T) {
	testutil.AssertEqual(t, len(FallbackParse("xyz123###", config.MustDefaultVocabulary())), 0)
	testutil.AssertEqual(t, len(FallbackParse("", config.MustDefaultVocabulary())), 0)
}

func TestExtract_UsesLLM(t *testing.T) {
	llm := &fakeLLM{content: `{"food_items":[{"name":"egg","quantity":2,"unit":"piece"},{"name":"coffee","quantity":1,"unit":"cup"}]}`}
	e := NewFoodTextExtractor(llm, nil, nil)

	items := e.Extract(context.Background(), "2 eggs and a coffee")
	testutil.AssertEqual(t, len(items), 2)
	testutil.AssertEqual(t, items[1].Name, "coffee")
	testutil.AssertFloat(t, items[1].Quantity, 1)

	testutil.AssertEqual(t, llm.calls, 1)
	testutil.AssertFloat(t, llm.last.Temperature, 0.1)
	testutil.AssertEqual(t, llm.last.MaxTokens, 500)
	testutil.AssertContains(t, llm.last.Messages[1].Content, `"2 eggs and a coffee"`)
}

func TestExtract_FallsBackOnFailure(t *testing.T) {
	cases := map[string]*fakeLLM{
		"llm error":    {err: errors.New("boom")},
		"no api key":   {err: ErrNoAPIKey},
		"unparseable":  {content: "I think you ate eggs"},
		"empty result": {content: `{"food_items":[]}`},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			e := NewFoodTextExtractor(llm, config.MustDefaultVocabulary(), nil)
			items := e.Extract(context.Background(), "3 ta olma")
			testutil.AssertEqual(t, len(items), 1)
			testutil.AssertEqual(t, items[0].Name, "olma")
			testutil.AssertFloat(t, items[0].Quantity, 3)
		})
	}
}

func TestExtract_NothingFound(t *testing.T) {
	e := NewFoodTextExtractor(&fakeLLM{err: errors.New("down")}, nil, nil)
	testutil.AssertEqual(t, len(e.Extract(context.Background(), "xyz123###")), 0)
}

func TestSuggest(t *testing.T) {
	llm := &fakeLLM{content: "tuxum\n  tuxum barak \n\nqovurilgan tuxum\n"}
	e := NewFoodTextExtractor(llm, nil, nil)

	out := e.Suggest(context.Background(), "tux")
	testutil.AssertEqual(t, len(out), 3)
	testutil.AssertEqual(t, out[1], "tuxum barak")
	testutil.AssertFloat(t, llm.last.Temperature, 0.2)
	testutil.AssertEqual(t, llm.last.MaxTokens, 100)

	failing := NewFoodTextExtractor(&fakeLLM{err: errors.New("down")}, nil, nil)
	out = failing.Suggest(context.Background(), "tux")
	testutil.AssertTrue(t, out != nil)
	testutil.AssertEqual(t, len(out), 0)
}

func TestLLMService_Complete(t *testing.T) {
	srv := testutil.MockHTTPServerFunc(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.URL.Path, "/chat/completions")
		testutil.AssertEqual(t, r.Header.Get("Authorization"), "Bearer sk-test")
		body := decodeBody(t, r)
		testutil.AssertEqual(t, body["model"], "gpt-test")
		testutil.AssertEqual(t, body["temperature"], 0.1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"food_items\":[]}"}}]}`))
	})
	svc := NewLLMService(config.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "gpt-test"})

	out, err := svc.Complete(context.Background(), ChatRequest{
		Messages:    []ChatMessage{{Role: "user", Content: "hi"}},
		Temperature: 0.1,
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, out, `{"food_items":[]}`)
}

func TestLLMService_Errors(t *testing.T) {
	_, err := NewLLMService(config.LLMConfig{}).Complete(context.Background(), ChatRequest{})
	testutil.AssertTrue(t, errors.Is(err, ErrNoAPIKey))

	srv := testutil.MockHTTPServer(t, http.StatusUnauthorized, `{"error":"bad key"}`)
	_, err = NewLLMService(config.LLMConfig{APIKey: "k", BaseURL: srv.URL}).Complete(context.Background(), ChatRequest{})
	testutil.AssertError(t, err)
	testutil.AssertContains(t, err.Error(), "401")

	empty := testutil.MockHTTPServer(t, http.StatusOK, `{"choices":[]}`)
	_, err = NewLLMService(config.LLMConfig{APIKey: "k", BaseURL: empty.URL}).Complete(context.Background(), ChatRequest{})
	testutil.AssertTrue(t, errors.Is(err, ErrEmptyCompletion))
}

func TestBuildExtractionPrompt(t *testing.T) {
	p := BuildExtractionPrompt("non va choy")
	testutil.AssertContains(t, p, `Text: "non va choy"`)
	testutil.AssertTrue(t, strings.Contains(p, "food_items"))
}
