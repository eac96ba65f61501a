package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/riseai/rise-chat/internal/model/chat"
	"github.com/riseai/rise-chat/internal/model/identity"
	"github.com/riseai/rise-chat/internal/model/user"
)

func TestSimulatorGreetsByName(t *testing.T) {
	sim := NewSimulator()
	reply, err := sim.Respond(context.Background(), Request{
		User:    user.User{Username: "demo_employee", FullName: "Demo Employee", Role: identity.RoleEmployee},
		Message: "Hello there",
	})
	if err != nil {
		t.Fatalf("Respond err: %v", err)
	}
	if !strings.Contains(reply, "Demo Employee") {
		t.Fatalf("expected greeting with name, got %q", reply)
	}
}

func TestSimulatorStatsDependOnRole(t *testing.T) {
	sim := NewSimulator()
	ctx := context.Background()

	manager, _ := sim.Respond(ctx, Request{User: user.User{Role: identity.RoleManager}, Message: "stats please"})
	employee, _ := sim.Respond(ctx, Request{User: user.User{Role: identity.RoleEmployee}, Message: "stats please"})

	if !strings.Contains(manager, "Team") {
		t.Fatalf("expected team statistics for manager, got %q", manager)
	}
	if !strings.Contains(employee, "Personal") {
		t.Fatalf("expected personal statistics for employee, got %q", employee)
	}
}

func TestBuildHistoryMessagesChronological(t *testing.T) {
	msgs := buildHistoryMessages([]chat.Exchange{
		{UserText: "second", AssistantText: "r2"},
		{UserText: "first", AssistantText: "r1"},
	})
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[0].Role != schema.User || msgs[0].Content != "first" {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	if msgs[3].Role != schema.Assistant || msgs[3].Content != "r2" {
		t.Fatalf("unexpected last message: %+v", msgs[3])
	}
}

func TestBuildSystemPromptMentionsRole(t *testing.T) {
	p := BuildSystemPrompt(user.User{Username: "demo_manager", FullName: "Demo Manager", Role: identity.RoleManager})
	if !strings.Contains(p, "manager") || !strings.Contains(p, "Demo Manager") {
		t.Fatalf("prompt missing user context: %s", p)
	}
}
