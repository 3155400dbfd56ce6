package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/google/uuid"
)

func TestSplitParagraphs(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		p1, p2, p3 string
	}{
		{"three", "A\n\nB\n\nC", "A", "B", "C"},
		{"two", "A\n\nB", "A", "B", ""},
		{"empty", "", "", "", ""},
		{"extra blank lines", "\n\nA\n\n\n\nB\n\n", "A", "B", ""},
		{"more than three", "A\n\nB\n\nC\n\nD", "A", "B", "C"},
		{"single newline kept", "A\nstill A\n\nB", "A\nstill A", "B", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p1, p2, p3 := SplitParagraphs(tt.in)
			if p1 != tt.p1 || p2 != tt.p2 || p3 != tt.p3 {
				t.Errorf("got (%q, %q, %q), want (%q, %q, %q)", p1, p2, p3, tt.p1, tt.p2, tt.p3)
			}
		})
	}
}

func TestCollectChunks(t *testing.T) {
	events := make(chan types.ResponseStream, 4)
	// "é" is split across two chunks.
	events <- &types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte("caf\xc3")}}
	events <- &types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte("\xa9\n\nB")}}
	events <- &types.ResponseStreamMemberTrace{}
	close(events)

	if got := collectChunks(events); got != "café\n\nB" {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Invoke(context.Background())
	if !errors.Is(err, ErrAgentUnavailable) {
		t.Errorf("expected ErrAgentUnavailable, got %v", err)
	}
}

func TestNewWithoutIdentifiers(t *testing.T) {
	a, err := New(context.Background(), Config{Region: "ap-southeast-2"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.(Unavailable); !ok {
		t.Fatalf("expected Unavailable, got %T", a)
	}
}

type fakeRuntime struct {
	inputs []*bedrockagentruntime.InvokeAgentInput
	err    error
}

func (f *fakeRuntime) InvokeAgent(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput, _ ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error) {
	f.inputs = append(f.inputs, in)
	return nil, f.err
}

func TestInvokeError(t *testing.T) {
	denied := errors.New("AccessDeniedException")
	rt := &fakeRuntime{err: denied}
	b := NewWithClient(rt, Config{AgentID: "agent-1", AliasID: "alias-1"})

	for range 2 {
		_, err := b.Invoke(context.Background())
		if !errors.Is(err, ErrAgentInvocation) {
			t.Fatalf("expected ErrAgentInvocation, got %v", err)
		}
		if !errors.Is(err, denied) {
			t.Fatalf("expected cause preserved, got %v", err)
		}
	}

	in := rt.inputs[0]
	if *in.AgentId != "agent-1" || *in.AgentAliasId != "alias-1" {
		t.Errorf("unexpected agent ids: %s %s", *in.AgentId, *in.AgentAliasId)
	}
	if *in.InputText != TriggerInput {
		t.Errorf("expected trigger input, got %q", *in.InputText)
	}
	if _, err := uuid.Parse(*in.SessionId); err != nil {
		t.Errorf("session id is not a uuid: %v", err)
	}
	if *rt.inputs[0].SessionId == *rt.inputs[1].SessionId {
		t.Error("expected a fresh session id per call")
	}
}

func TestInvokeRateLimitHonoursContext(t *testing.T) {
	rt := &fakeRuntime{err: errors.New("unused")}
	b := NewWithClient(rt, Config{AgentID: "a", AliasID: "b", RequestsPerMinute: 1})

	// First call consumes the single burst token.
	_, _ = b.Invoke(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Invoke(ctx)
	if !errors.Is(err, ErrAgentInvocation) {
		t.Errorf("expected ErrAgentInvocation, got %v", err)
	}
	if len(rt.inputs) != 1 {
		t.Errorf("expected rate-limited call to skip the runtime, got %d calls", len(rt.inputs))
	}
}
