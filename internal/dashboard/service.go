// Package dashboard is the read-only query facade behind the web layer.
package dashboard

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/patrickmn/go-cache"

	"admintime/internal/ledger"
	"admintime/pkg/utils"
)

// ErrUnknownAdmin is returned for queries about an admin the ledger has
// never seen.
var ErrUnknownAdmin = errors.New("unknown admin")

// Profile is the resolved platform identity of an admin.
type Profile struct {
	Name      string
	AvatarURL string
}

// ProfileFetcher resolves an admin's current profile. Implemented over the
// gateway in internal/discord.
type ProfileFetcher interface {
	FetchProfile(adminID string) (Profile, error)
}

// AdminView is one row of the dashboard overview.
type AdminView struct {
	AdminID     string `json:"adminId"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar"`
	InVoice     bool   `json:"inVoice"`
	TotalTime   string `json:"totalTime"`
	TodayTime   string `json:"todayTime"`
	WeeklyTime  string `json:"weeklyTime"`
	MonthlyTime string `json:"monthlyTime"`
}

// RangeResult is the aggregate for one admin over a custom window.
type RangeResult struct {
	AdminID string `json:"adminId"`
	Name    string `json:"name"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Total   string `json:"total"`
}

const (
	placeholderName   = "Unknown"
	placeholderAvatar = "https://via.placeholder.com/50"

	profileCacheTTL = 5 * time.Minute
)

// Service combines the ledger, the range aggregator and identity lookups.
// Profile lookups are cached so a dashboard refresh does not turn into a
// REST call per admin per page load.
type Service struct {
	ledger   *ledger.Ledger
	profiles ProfileFetcher
	cache    *cache.Cache
	now      func() time.Time
}

// NewService creates a dashboard query service.
func NewService(l *ledger.Ledger, profiles ProfileFetcher) *Service {
	return &Service{
		ledger:   l,
		profiles: profiles,
		cache:    cache.New(profileCacheTTL, 2*profileCacheTTL),
		now:      time.Now,
	}
}

// Overview returns one view row per tracked admin, ordered by admin ID.
// A failed profile lookup degrades that row to placeholders; it never
// fails the whole listing.
func (s *Service) Overview() []AdminView {
	now := s.now()
	today := ledger.TodayWindow(now)
	weekly := ledger.WeeklyWindow(now)
	monthly := ledger.MonthlyWindow(now)

	snaps := s.ledger.Snapshots()
	views := make([]AdminView, 0, len(snaps))
	for _, snap := range snaps {
		profile := s.profile(snap.AdminID, snap.DisplayName)

		todaySum, _ := ledger.SumInWindow(snap.Sessions, today.Start, today.End)
		weeklySum, _ := ledger.SumInWindow(snap.Sessions, weekly.Start, weekly.End)
		monthlySum, _ := ledger.SumInWindow(snap.Sessions, monthly.Start, monthly.End)

		views = append(views, AdminView{
			AdminID:     snap.AdminID,
			Name:        profile.Name,
			AvatarURL:   profile.AvatarURL,
			InVoice:     snap.Open(),
			TotalTime:   utils.FormatDuration(snap.Total),
			TodayTime:   utils.FormatDuration(todaySum),
			WeeklyTime:  utils.FormatDuration(weeklySum),
			MonthlyTime: utils.FormatDuration(monthlySum),
		})
	}
	return views
}

// Range returns the aggregate for one admin over [start, end).
func (s *Service) Range(adminID string, start, end time.Time) (RangeResult, error) {
	snap, ok := s.ledger.Snapshot(adminID)
	if !ok {
		return RangeResult{}, fmt.Errorf("%w: %s", ErrUnknownAdmin, adminID)
	}

	total, err := ledger.SumInWindow(snap.Sessions, start, end)
	if err != nil {
		return RangeResult{}, err
	}

	profile := s.profile(adminID, snap.DisplayName)
	return RangeResult{
		AdminID: adminID,
		Name:    profile.Name,
		Start:   start.Format(time.RFC3339),
		End:     end.Format(time.RFC3339),
		Total:   utils.FormatDuration(total),
	}, nil
}

// profile resolves an admin's profile through the cache, falling back to
// the ledger's stored name and finally to placeholders.
func (s *Service) profile(adminID, storedName string) Profile {
	if cached, found := s.cache.Get(adminID); found {
		return cached.(Profile)
	}

	profile, err := s.profiles.FetchProfile(adminID)
	if err != nil {
		log.Printf("dashboard: fetch profile for %s: %v", adminID, err)
		profile = Profile{Name: storedName, AvatarURL: placeholderAvatar}
		if profile.Name == "" {
			profile.Name = placeholderName
		}
		// Not cached: the next refresh should retry the lookup.
		return profile
	}

	if profile.Name == "" {
		profile.Name = placeholderName
	}
	if profile.AvatarURL == "" {
		profile.AvatarURL = placeholderAvatar
	}
	s.cache.Set(adminID, profile, cache.DefaultExpiration)
	return profile
}
