package rewards

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

const wallet = "0x52908400098527886e0f7030069857d2e4169ee7"

func TestRecordReportUnlocksBadges(t *testing.T) {
	l := NewLedger(decimal.NewFromInt(1))

	testCases := []struct {
		name   string
		points int
		badges []string
	}{
		{"first report", PointsPerReport + 100, []string{"eco-reporter"}},
		{"second report", PointsPerReport, nil},
		{"third report", PointsPerReport + 200, []string{"community-helper"}},
		{"fourth report", PointsPerReport, nil},
	}

	total := 0
	for _, tc := range testCases {
		award := l.RecordReport("alice")
		total += tc.points
		if award.Points != tc.points {
			t.Errorf("%s: expected %d points, got %d", tc.name, tc.points, award.Points)
		}
		if len(award.Badges) != len(tc.badges) {
			t.Errorf("%s: expected badges %v, got %+v", tc.name, tc.badges, award.Badges)
			continue
		}
		for i, b := range tc.badges {
			if award.Badges[i].Slug != b {
				t.Errorf("%s: expected badge %s, got %s", tc.name, b, award.Badges[i].Slug)
			}
		}
	}

	a, ok := l.Account("alice")
	if !ok {
		t.Fatal("expected account")
	}
	if a.Points != total || a.Reports != 4 || len(a.Badges) != 2 {
		t.Errorf("unexpected account %+v", a)
	}
}

func TestRecordResolution(t *testing.T) {
	l := NewLedger(decimal.RequireFromString("0.5"))

	award, ok := l.RecordResolution(wallet, "report-1")
	if !ok {
		t.Fatal("expected first resolution to be credited")
	}
	if award.Wallet != "0x52908400098527886E0F7030069857D2E4169EE7" {
		t.Errorf("expected checksummed wallet, got %q", award.Wallet)
	}
	if !award.Tokens.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("expected 0.5 tokens, got %s", award.Tokens)
	}
	expectedWei, _ := new(big.Int).SetString("500000000000000000", 10)
	if award.Wei == nil || award.Wei.Cmp(expectedWei) != 0 {
		t.Errorf("expected %s wei, got %v", expectedWei, award.Wei)
	}

	anon, _ := l.RecordResolution("bob", "report-2")
	if anon.Wallet != "" || !anon.Tokens.IsZero() || anon.Wei != nil {
		t.Errorf("expected points only for a non-wallet id, got %+v", anon)
	}
	if anon.Points != PointsPerResolution {
		t.Errorf("expected %d points, got %d", PointsPerResolution, anon.Points)
	}
}

func TestRecordResolutionCreditsReportOnce(t *testing.T) {
	l := NewLedger(decimal.NewFromInt(1))

	if _, ok := l.RecordResolution(wallet, "report-1"); !ok {
		t.Fatal("expected first resolution to be credited")
	}
	again, ok := l.RecordResolution(wallet, "report-1")
	if ok || again.Points != 0 || again.Wei != nil {
		t.Errorf("expected no credit for a repeated resolution, got %+v", again)
	}
	if _, ok := l.RecordResolution(wallet, "report-2"); !ok {
		t.Fatal("expected another report to be credited")
	}

	a, _ := l.Account(wallet)
	if a.Resolved != 2 || a.Points != 2*PointsPerResolution || !a.Tokens.Equal(decimal.NewFromInt(2)) {
		t.Errorf("unexpected account %+v", a)
	}
}

func TestWeiConversions(t *testing.T) {
	wei := ToWei(decimal.RequireFromString("1.25"))
	if wei.String() != "1250000000000000000" {
		t.Errorf("unexpected wei %s", wei)
	}
	if back := FromWei(wei); !back.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("unexpected round trip %s", back)
	}
}

func TestLeaderboard(t *testing.T) {
	l := NewLedger(decimal.Zero)
	l.RecordReport("carol")
	l.RecordResolution("dave", "report-1")
	l.RecordReport("erin")
	l.RecordReport("erin")
	l.RecordReport("erin")

	top := l.Leaderboard(2)
	if len(top) != 2 || top[0].UserID != "erin" || top[1].UserID != "carol" {
		t.Errorf("unexpected leaderboard %+v", top)
	}
	if _, ok := l.Account("nobody"); ok {
		t.Errorf("expected no account for an unknown user")
	}
}
