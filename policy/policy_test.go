package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilPolicyAdmitsEverything(t *testing.T) {
	var p *Policy
	assert.True(t, p.IsAllowed("anything"))
	assert.True(t, p.Admit(context.Background(), "anything", nil))
}

func TestBlockListTakesPriorityOverAllowList(t *testing.T) {
	p := &Policy{AllowList: []string{"ingest"}, BlockList: []string{"ingest"}}
	assert.False(t, p.IsAllowed("ingest"))
}

func TestAllowListRestrictsToListedNames(t *testing.T) {
	p := &Policy{AllowList: []string{"ingest", "export"}}
	assert.True(t, p.IsAllowed("Ingest"))
	assert.False(t, p.IsAllowed("delete"))
}

func TestModeDenyRejectsRegardlessOfLists(t *testing.T) {
	p := &Policy{Mode: ModeDeny}
	assert.False(t, p.Admit(context.Background(), "ingest", nil))
}

func TestModeAskDefersToAskFunc(t *testing.T) {
	var seen string
	p := &Policy{
		Mode: ModeAsk,
		Ask: func(ctx context.Context, taskName string, args map[string]interface{}, p *Policy) bool {
			seen = taskName
			return taskName == "ingest"
		},
	}
	assert.True(t, p.Admit(context.Background(), "ingest", nil))
	assert.Equal(t, "ingest", seen)
	assert.False(t, p.Admit(context.Background(), "export", nil))
}

func TestConfigRoundTrip(t *testing.T) {
	p := &Policy{Mode: ModeAuto, AllowList: []string{"a"}, BlockList: []string{"b"}}
	cfg := ToConfig(p)
	restored := FromConfig(cfg)
	assert.Equal(t, p.Mode, restored.Mode)
	assert.Equal(t, p.AllowList, restored.AllowList)
	assert.Equal(t, p.BlockList, restored.BlockList)
}

func TestContextRoundTrip(t *testing.T) {
	p := &Policy{Mode: ModeDeny}
	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
}
