package migrate

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/nexussleep/sleepnexus-system/internal/model"
)

func TestNormalize_LegacySingleProfile(t *testing.T) {
	raw := []byte(`{
		"username": "Ada",
		"userBalance": 120,
		"logs": [{"id":"l1","startTime":1000,"endTime":2000,"durationMinutes":420,"pointsEarned":80}],
		"pointRule": {"maxDailyPoints": 90, "minDailyPoints": 30}
	}`)

	gs := Normalize(raw, zap.NewNop())

	if len(gs.Profiles) != 1 {
		t.Fatalf("profiles = %d, want 1", len(gs.Profiles))
	}
	p := gs.Profiles[0]
	if p.ID != model.LegacyUserID {
		t.Fatalf("id = %q, want %q", p.ID, model.LegacyUserID)
	}
	if gs.ActiveProfileID != p.ID {
		t.Fatalf("active id = %q, want %q", gs.ActiveProfileID, p.ID)
	}
	if p.Username != "Ada" || p.UserBalance != 120 {
		t.Fatalf("overlay lost document fields: %+v", p)
	}
	if len(p.Logs) != 1 || p.Logs[0].PointsEarned != 80 {
		t.Fatalf("overlay lost logs: %+v", p.Logs)
	}
	if p.PointRule.MaxDailyPoints != 90 {
		t.Fatalf("maxDailyPoints = %d, want 90", p.PointRule.MaxDailyPoints)
	}
	if p.PointRule.PenaltyPoints != 30 {
		t.Fatalf("minDailyPoints must migrate to penaltyPoints, got %d", p.PointRule.PenaltyPoints)
	}
}

func TestNormalize_LegacyMigrationIdempotent(t *testing.T) {
	raw := []byte(`{"username":"Ada","userBalance":5,"logs":[]}`)

	first := Normalize(raw, zap.NewNop())

	serialized, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	second := Normalize(serialized, zap.NewNop())

	if second.ActiveProfileID != first.ActiveProfileID {
		t.Fatalf("active id changed on re-migration: %q -> %q", first.ActiveProfileID, second.ActiveProfileID)
	}
	if len(second.Profiles) != 1 || second.Profiles[0].ID != model.LegacyUserID {
		t.Fatalf("re-migration is not a no-op: %+v", second.Profiles)
	}
}

func TestNormalize_LegacyWithoutRuleGetsDefault(t *testing.T) {
	raw := []byte(`{"username":"Ada","userBalance":0,"logs":[]}`)

	gs := Normalize(raw, zap.NewNop())

	if gs.Profiles[0].PointRule != model.DefaultRule() {
		t.Fatalf("rule = %+v, want default", gs.Profiles[0].PointRule)
	}
}

func TestNormalize_CurrentShapeAcceptedVerbatim(t *testing.T) {
	raw := []byte(`{
		"activeProfileId": "p2",
		"profiles": [
			{"id":"p1","username":"Ada","userBalance":10,"logs":[],"rewards":[],"pointRule":{"maxDailyPoints":100,"penaltyPoints":50},"isSleeping":false,"currentSleepStart":null},
			{"id":"p2","username":"Bob","userBalance":20,"logs":[],"rewards":[],"pointRule":{"maxDailyPoints":100,"penaltyPoints":50},"isSleeping":false,"currentSleepStart":null}
		]
	}`)

	gs := Normalize(raw, zap.NewNop())

	if gs.ActiveProfileID != "p2" {
		t.Fatalf("active id = %q, want p2", gs.ActiveProfileID)
	}
	if len(gs.Profiles) != 2 || gs.Profiles[0].ID != "p1" || gs.Profiles[1].UserBalance != 20 {
		t.Fatalf("current-shape document was modified: %+v", gs.Profiles)
	}
}

func TestNormalize_RoundTripLossless(t *testing.T) {
	raw := []byte(`{
		"activeProfileId": "p1",
		"profiles": [
			{"id":"p1","username":"Ada","userBalance":10,"logs":[{"id":"l1","startTime":1,"endTime":2,"durationMinutes":3,"pointsEarned":4}],"rewards":[{"id":"r1","name":"x","cost":5,"emoji":"y","redemptionCount":6}],"pointRule":{"maxDailyPoints":100,"penaltyPoints":50},"isSleeping":false,"currentSleepStart":null}
		]
	}`)

	gs := Normalize(raw, zap.NewNop())

	serialized, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	again := Normalize(serialized, zap.NewNop())

	if again.ActiveProfileID != gs.ActiveProfileID || len(again.Profiles) != len(gs.Profiles) {
		t.Fatalf("round trip lost state: %+v vs %+v", gs, again)
	}
	wantLog := gs.Profiles[0].Logs[0]
	gotLog := again.Profiles[0].Logs[0]
	if gotLog.ID != wantLog.ID || gotLog.PointsEarned != wantLog.PointsEarned ||
		gotLog.EndTime == nil || *gotLog.EndTime != *wantLog.EndTime {
		t.Fatalf("round trip lost log data: %+v vs %+v", gotLog, wantLog)
	}
}

func TestNormalize_FallbackCases(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "empty document", raw: nil},
		{name: "malformed json", raw: []byte(`{"logs": [`)},
		{name: "unrecognized shape", raw: []byte(`{"something":"else"}`)},
		{name: "profiles present but empty", raw: []byte(`{"activeProfileId":"x","profiles":[]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := Normalize(tt.raw, zap.NewNop())

			if len(gs.Profiles) != 1 {
				t.Fatalf("profiles = %d, want 1", len(gs.Profiles))
			}
			if gs.Profiles[0].Username != "" {
				t.Fatalf("fallback profile must be a placeholder, got username %q", gs.Profiles[0].Username)
			}
			if gs.ActiveProfileID != gs.Profiles[0].ID {
				t.Fatalf("fallback profile must be active")
			}
		})
	}
}

func TestOverlayProfile_SleepingInvariantRepaired(t *testing.T) {
	var doc map[string]json.RawMessage
	raw := []byte(`{"username":"Ada","userBalance":0,"logs":[],"isSleeping":true,"currentSleepStart":null}`)
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p := OverlayProfile(doc)

	if p.IsSleeping {
		t.Fatalf("isSleeping must follow currentSleepStart")
	}

	raw = []byte(`{"username":"Ada","userBalance":0,"logs":[],"isSleeping":false,"currentSleepStart":1234}`)
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p = OverlayProfile(doc)

	if !p.IsSleeping || p.CurrentSleepStart == nil || *p.CurrentSleepStart != 1234 {
		t.Fatalf("open session lost during overlay: %+v", p)
	}
}

func TestOverlayProfile_MinDailyPointsWinsOverPenaltyPoints(t *testing.T) {
	var doc map[string]json.RawMessage
	raw := []byte(`{"username":"Ada","userBalance":0,"logs":[],"pointRule":{"maxDailyPoints":90,"penaltyPoints":10,"minDailyPoints":30}}`)
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p := OverlayProfile(doc)

	if p.PointRule.PenaltyPoints != 30 {
		t.Fatalf("penaltyPoints = %d, want 30 from minDailyPoints", p.PointRule.PenaltyPoints)
	}
	if p.PointRule.MaxDailyPoints != 90 {
		t.Fatalf("maxDailyPoints = %d, want 90", p.PointRule.MaxDailyPoints)
	}
}

func TestNormalize_LegacyRuleWithBothPenaltyFields(t *testing.T) {
	raw := []byte(`{"username":"Ada","userBalance":0,"logs":[],"pointRule":{"maxDailyPoints":90,"penaltyPoints":10,"minDailyPoints":30}}`)

	gs := Normalize(raw, zap.NewNop())

	if got := gs.Profiles[0].PointRule.PenaltyPoints; got != 30 {
		t.Fatalf("penaltyPoints = %d, want 30", got)
	}
}

func TestOverlayProfile_ZeroMinDailyPointsFallsBackTo50(t *testing.T) {
	var doc map[string]json.RawMessage
	raw := []byte(`{"username":"Ada","userBalance":0,"logs":[],"pointRule":{"maxDailyPoints":80,"minDailyPoints":0}}`)
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p := OverlayProfile(doc)

	if p.PointRule.PenaltyPoints != 50 {
		t.Fatalf("penaltyPoints = %d, want fallback 50", p.PointRule.PenaltyPoints)
	}
	if p.PointRule.MaxDailyPoints != 80 {
		t.Fatalf("maxDailyPoints = %d, want 80", p.PointRule.MaxDailyPoints)
	}
}
