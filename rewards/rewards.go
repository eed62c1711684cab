// Package rewards keeps the gamification ledger: points and badges for
// reporters, and the token amount owed when their reports get resolved.
package rewards

import (
	"math/big"
	"sort"
	"sync"

	"github.com/apex/log"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	PointsPerReport     = 10
	PointsPerResolution = 25
)

// Badge is an achievement unlocked once per user.
type Badge struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	// Reports is the number of submitted reports that unlocks the badge.
	Reports int `json:"-"`
}

// ReportBadges are unlocked by submitting reports.
var ReportBadges = []Badge{
	{
		Slug:        "eco-reporter",
		Name:        "Eco Reporter",
		Description: "You reported an environmental issue. Thank you!",
		Points:      100,
		Reports:     1,
	},
	{
		Slug:        "community-helper",
		Name:        "Community Helper",
		Description: "Reported 3 issues. Thanks for your dedication!",
		Points:      200,
		Reports:     3,
	},
}

// Account is the reward state of one reporter.
type Account struct {
	UserID   string          `json:"user_id"`
	Wallet   string          `json:"wallet,omitempty"`
	Points   int             `json:"points"`
	Reports  int             `json:"reports"`
	Resolved int             `json:"resolved"`
	Badges   []string        `json:"badges"`
	Tokens   decimal.Decimal `json:"tokens"`
}

// Award is what a single event granted.
type Award struct {
	UserID string          `json:"user_id"`
	Wallet string          `json:"wallet,omitempty"`
	Points int             `json:"points"`
	Badges []Badge         `json:"badges,omitempty"`
	Tokens decimal.Decimal `json:"tokens"`
	Wei    *big.Int        `json:"-"`
}

// Ledger is an in-memory reward ledger safe for concurrent use.
type Ledger struct {
	mu                  sync.Mutex
	accounts            map[string]*Account
	rewarded            map[string]bool
	tokensPerResolution decimal.Decimal
}

// NewLedger creates a ledger paying tokensPerResolution for every resolved
// report filed from a wallet address.
func NewLedger(tokensPerResolution decimal.Decimal) *Ledger {
	return &Ledger{
		accounts:            make(map[string]*Account),
		rewarded:            make(map[string]bool),
		tokensPerResolution: tokensPerResolution,
	}
}

// ToWei converts a token amount with 18 decimals to its base unit.
func ToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(18).BigInt()
}

// FromWei converts base units back to a token amount.
func FromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -18)
}

// WalletAddress returns the checksummed form of id when it is a hex wallet
// address.
func WalletAddress(id string) (string, bool) {
	if !ethcommon.IsHexAddress(id) {
		return "", false
	}
	return ethcommon.HexToAddress(id).Hex(), true
}

func (l *Ledger) account(userID string) *Account {
	a, ok := l.accounts[userID]
	if !ok {
		a = &Account{UserID: userID, Badges: []string{}, Tokens: decimal.Zero}
		a.Wallet, _ = WalletAddress(userID)
		l.accounts[userID] = a
	}
	return a
}

// RecordReport credits a submitted report and unlocks report badges.
func (l *Ledger) RecordReport(userID string) Award {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.account(userID)
	a.Reports++
	award := Award{UserID: userID, Wallet: a.Wallet, Points: PointsPerReport, Tokens: decimal.Zero}

	for _, b := range ReportBadges {
		if a.Reports == b.Reports && !hasBadge(a, b.Slug) {
			a.Badges = append(a.Badges, b.Slug)
			award.Badges = append(award.Badges, b)
			award.Points += b.Points
			log.WithFields(log.Fields{"user": userID, "badge": b.Slug}).Info("badge unlocked")
		}
	}
	a.Points += award.Points
	return award
}

// RecordResolution credits the reporter of a resolved report. A report is
// credited at most once; later calls for the same report return false.
// Tokens are only owed to wallet addresses.
func (l *Ledger) RecordResolution(userID, reportID string) (Award, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rewarded[reportID] {
		return Award{}, false
	}
	l.rewarded[reportID] = true

	a := l.account(userID)
	a.Resolved++
	a.Points += PointsPerResolution
	award := Award{UserID: userID, Wallet: a.Wallet, Points: PointsPerResolution, Tokens: decimal.Zero}
	if a.Wallet != "" && l.tokensPerResolution.IsPositive() {
		a.Tokens = a.Tokens.Add(l.tokensPerResolution)
		award.Tokens = l.tokensPerResolution
		award.Wei = ToWei(l.tokensPerResolution)
	}
	return award, true
}

// Account returns a copy of a user's account.
func (l *Ledger) Account(userID string) (Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[userID]
	if !ok {
		return Account{}, false
	}
	c := *a
	c.Badges = append([]string{}, a.Badges...)
	return c, true
}

// Leaderboard returns the top n accounts by points.
func (l *Ledger) Leaderboard(n int) []Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := make([]Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		c := *a
		c.Badges = append([]string{}, a.Badges...)
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Points != res[j].Points {
			return res[i].Points > res[j].Points
		}
		return res[i].UserID < res[j].UserID
	})
	if n > 0 && len(res) > n {
		res = res[:n]
	}
	return res
}

func hasBadge(a *Account, slug string) bool {
	for _, s := range a.Badges {
		if s == slug {
			return true
		}
	}
	return false
}
