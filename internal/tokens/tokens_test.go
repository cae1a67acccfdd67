package tokens

import "testing"

func TestCountText(t *testing.T) {
	c := NewCounter()

	n, err := c.CountText("gpt-4o", "Hello, how are you today?")
	if err != nil {
		t.Fatalf("CountText failed: %v", err)
	}
	if n == 0 {
		t.Error("Expected a non-zero token count")
	}
}

func TestEstimatePrompt(t *testing.T) {
	c := NewCounter()

	msgs := []Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "What is the capital of France?"},
	}

	n := c.EstimatePrompt("gpt-4o", msgs)
	// 2 messages * 4 overhead + 3 priming = 11 minimum before content.
	if n <= 11 {
		t.Errorf("Expected estimate above overhead, got %d", n)
	}
}

func TestEstimatePrompt_UnknownModelFallsBack(t *testing.T) {
	c := NewCounter()

	n := c.EstimatePrompt("claude-sonnet-4-5", []Message{{Role: "user", Content: "hello"}})
	if n == 0 {
		t.Error("Expected a rough estimate for a non-OpenAI model")
	}
}

func TestEstimatePrompt_Empty(t *testing.T) {
	c := NewCounter()

	if n := c.EstimatePrompt("gpt-4o", nil); n != 3 {
		t.Errorf("Expected only the priming overhead for an empty prompt, got %d", n)
	}
}
