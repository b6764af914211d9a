package maximization

import (
	"errors"
	"testing"

	"github.com/talgya/fleet-adapt/internal/adaptation"
)

func stepTo(value string) adaptation.RandomStep[agent, string] {
	return func(any, adaptation.Rand, agent, string) string { return value }
}

func TestNewBeamHillClimbingRequiresStep(t *testing.T) {
	_, err := NewBeamHillClimbing[agent, string](nil, true, true, nil)
	if !errors.Is(err, adaptation.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBeamRandomizeDelegatesToStep(t *testing.T) {
	b, err := NewBeamHillClimbing(stepTo("elsewhere"), true, true, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	b.Start(nil, 1, "here")
	if got := b.Randomize(seeded(1), 1, 0, "here"); got != "elsewhere" {
		t.Fatalf("randomize = %q, want elsewhere", got)
	}
}

func TestJudgeRandomizationBacktracksOnlyWhenWorse(t *testing.T) {
	cases := []struct {
		backtracks bool
		prev, cur  float64
		want       string
		verdict    adaptation.Verdict
	}{
		{true, 10, 5, "previous", adaptation.VerdictBacktrack},
		{true, 5, 10, "current", adaptation.VerdictKeep},
		{true, 5, 5, "current", adaptation.VerdictKeep},
		{false, 10, 5, "current", adaptation.VerdictKeep},
		{false, 5, 10, "current", adaptation.VerdictKeep},
	}
	for _, tc := range cases {
		b, _ := NewBeamHillClimbing(stepTo("x"), true, tc.backtracks, nil)
		j := b.JudgeRandomization(seeded(1), 1, tc.prev, tc.cur, "previous", "current")
		if j.Value != tc.want || j.Verdict != tc.verdict {
			t.Errorf("backtracks=%v prev=%v cur=%v: got %q/%v, want %q/%v",
				tc.backtracks, tc.prev, tc.cur, j.Value, j.Verdict, tc.want, tc.verdict)
		}
	}
}

func TestImitateAlwaysCopiesBestPeer(t *testing.T) {
	positions := map[agent]string{1: "self", 2: "ten", 3: "twenty"}
	fitness := map[agent]float64{1: 0, 2: 10, 3: 20}
	objective := func(_, observed agent) float64 { return fitness[observed] }
	sensor := func(a agent) string { return positions[a] }

	b, _ := NewBeamHillClimbing(stepTo("x"), true, true, nil)
	for seed := int64(0); seed < 50; seed++ {
		im := b.Imitate(seeded(seed), 1, 0, "self", []agent{2, 3}, objective, sensor)
		if !im.Imitated || im.Peer != 3 || im.Value != "twenty" {
			t.Fatalf("seed %d: imitated %+v, want peer 3", seed, im)
		}
	}
}

func TestImitateRandomOnlyPicksStrictlyBetterPeers(t *testing.T) {
	positions := map[agent]string{1: "self", 2: "worse", 3: "equal", 4: "better", 5: "best"}
	fitness := map[agent]float64{1: 10, 2: 5, 3: 10, 4: 11, 5: 30}
	objective := func(_, observed agent) float64 { return fitness[observed] }
	sensor := func(a agent) string { return positions[a] }

	b, _ := NewBeamHillClimbing(stepTo("x"), false, true, nil)
	rng := seeded(7)
	seen := map[agent]int{}
	for i := 0; i < 200; i++ {
		im := b.Imitate(rng, 1, 10, "self", []agent{2, 3, 4, 5}, objective, sensor)
		if !im.Imitated {
			t.Fatalf("expected an imitation")
		}
		seen[im.Peer]++
	}
	if seen[2] != 0 || seen[3] != 0 {
		t.Fatalf("copied a peer that was not strictly better: %v", seen)
	}
	if seen[4] == 0 || seen[5] == 0 {
		t.Fatalf("random mode should reach every better peer: %v", seen)
	}
}

func TestImitateStaysWhenNobodyIsBetter(t *testing.T) {
	fitness := map[agent]float64{1: 50, 2: 10, 3: 50}
	objective := func(_, observed agent) float64 { return fitness[observed] }
	sensor := func(agent) string { return "peer" }

	b, _ := NewBeamHillClimbing(stepTo("x"), true, true, nil)
	im := b.Imitate(seeded(1), 1, 50, "self", []agent{2, 3}, objective, sensor)
	if im.Imitated || im.Value != "self" {
		t.Fatalf("expected to stay, got %+v", im)
	}
}

func TestJudgeImitationNeverKeepsALoss(t *testing.T) {
	b, _ := NewBeamHillClimbing(stepTo("x"), true, true, nil)
	for _, tc := range []struct {
		before, after float64
		want          string
	}{
		{10, 5, "previous"},
		{10, 10, "current"},
		{10, 15, "current"},
	} {
		j, action := b.JudgeImitation(seeded(1), 1, 2, tc.before, tc.after, "previous", "current")
		if j.Value != tc.want {
			t.Errorf("before=%v after=%v: got %q want %q", tc.before, tc.after, j.Value, tc.want)
		}
		if action.Kind != adaptation.PeerNone {
			t.Errorf("static network should never sever, got %+v", action)
		}
	}
}

func TestJudgeImitationSeversRegardlessOfOutcome(t *testing.T) {
	alwaysCut := func(float64, float64) bool { return true }
	b, _ := NewBeamHillClimbing(stepTo("x"), true, true, alwaysCut)

	j, action := b.JudgeImitation(seeded(1), 1, 9, 10, 20, "previous", "current")
	if j.Value != "current" || action.Kind != adaptation.PeerSever || action.Peer != 9 {
		t.Fatalf("kept imitation: got %+v %+v", j, action)
	}
	j, action = b.JudgeImitation(seeded(1), 1, 9, 20, 10, "previous", "current")
	if j.Value != "previous" || action.Kind != adaptation.PeerSever || action.Peer != 9 {
		t.Fatalf("reverted imitation: got %+v %+v", j, action)
	}
}

func TestUnfriendOnDrop(t *testing.T) {
	cut := UnfriendOnDrop(0.5)
	if cut(100, 60) {
		t.Errorf("a 40%% drop should not cut at threshold 50%%")
	}
	if !cut(100, 40) {
		t.Errorf("a 60%% drop should cut at threshold 50%%")
	}
	if !cut(-10, -20) {
		t.Errorf("drops from negative fitness are measured on |before|")
	}
}

func TestBeamExploitIsNoop(t *testing.T) {
	b, _ := NewBeamHillClimbing(stepTo("x"), true, true, nil)
	if got := b.Exploit(seeded(1), 1, 3, "here"); got != "here" {
		t.Fatalf("exploit moved to %q", got)
	}
}
