package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/pkg/models"
)

// ResolvedDeadline is the absolute instant a timeline entry denotes
// once its instance's timezone is applied. Derived per query, never
// stored.
type ResolvedDeadline struct {
	At       time.Time
	Instance *models.ConferenceInstance
	Item     *models.TimelineItem
}

// DeadlineResolver turns free-text local deadlines into absolute
// instants. Malformed entries are dropped, never errored: the catalog
// is community-maintained and a single bad row must not take a
// conference out of the listing.
type DeadlineResolver struct {
	logger *logrus.Logger
}

var utcOffsetRe = regexp.MustCompile(`^UTC([+-]\d{1,2})$`)

// deadlineLayouts are tried in order against the free-text timestamp.
var deadlineLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

func NewDeadlineResolver(logger *logrus.Logger) *DeadlineResolver {
	return &DeadlineResolver{logger: logger}
}

// Resolve returns the conference's next meaningful deadline: the
// earliest resolved instant strictly after now, or, when everything is
// in the past, the most recent past one so the conference stays
// orderable as expired. Nil when no deadline parses.
func (r *DeadlineResolver) Resolve(conf *models.Conference, now time.Time) *ResolvedDeadline {
	var resolved []ResolvedDeadline

	for i := range conf.Instances {
		inst := &conf.Instances[i]
		loc := timezoneLocation(inst.Timezone)

		for j := range inst.Timeline {
			item := &inst.Timeline[j]
			if strings.EqualFold(strings.TrimSpace(item.Deadline), models.DeadlineTBD) {
				continue
			}

			at, ok := parseLocalDeadline(item.Deadline, loc)
			if !ok {
				r.logger.WithFields(logrus.Fields{
					"conference": conf.Title,
					"deadline":   item.Deadline,
				}).Debug("Dropping unparseable deadline")
				continue
			}

			resolved = append(resolved, ResolvedDeadline{At: at, Instance: inst, Item: item})
		}
	}

	if len(resolved) == 0 {
		return nil
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].At.Before(resolved[j].At)
	})

	for i := range resolved {
		if resolved[i].At.After(now) {
			return &resolved[i]
		}
	}

	// Everything is behind us: keep the most recent past deadline.
	return &resolved[len(resolved)-1]
}

// timezoneLocation maps the catalog's timezone notation to a fixed
// offset. AoE ("anywhere on earth") is UTC-12, the latest possible
// timezone; anything that is neither AoE nor UTC±N is treated as an
// already-absolute timestamp, which models unstructured or missing
// timezone data.
func timezoneLocation(tz string) *time.Location {
	tz = strings.TrimSpace(tz)
	if strings.EqualFold(tz, "AoE") {
		return time.FixedZone("AoE", -12*3600)
	}

	if m := utcOffsetRe.FindStringSubmatch(tz); m != nil {
		hours, err := strconv.Atoi(m[1])
		if err == nil && hours >= -12 && hours <= 14 {
			return time.FixedZone(tz, hours*3600)
		}
	}

	return time.UTC
}

func parseLocalDeadline(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CountdownLabel is display policy: past deadlines read "expired",
// more than 3 days out shows days only, up to 3 days out shows
// days+hours, and the final day shows hours+minutes. The 3-day cut
// point is fixed for output compatibility.
const countdownDetailCutoffDays = 3

func CountdownLabel(now, deadline time.Time) string {
	if !deadline.After(now) {
		return "expired"
	}

	remaining := deadline.Sub(now)
	days := int(remaining.Hours()) / 24

	switch {
	case days > countdownDetailCutoffDays:
		return fmt.Sprintf("%dd", days)
	case days > 0:
		hours := int(remaining.Hours()) % 24
		return fmt.Sprintf("%dd %dh", days, hours)
	default:
		hours := int(remaining.Hours())
		minutes := int(remaining.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}

// DeadlineInfo builds the serializable view of a resolved deadline,
// keeping both the local notation and the absolute instant.
func (r *DeadlineResolver) DeadlineInfo(rd *ResolvedDeadline, now time.Time) *models.DeadlineInfo {
	if rd == nil {
		return nil
	}

	info := &models.DeadlineInfo{
		At:        rd.At,
		LocalTime: strings.TrimSpace(rd.Item.Deadline),
		Timezone:  rd.Instance.Timezone,
		Countdown: CountdownLabel(now, rd.At),
		Expired:   !rd.At.After(now),
		Comment:   rd.Item.Comment,
		Link:      rd.Instance.Link,
		Year:      rd.Instance.Year,
		Place:     rd.Instance.Place,
	}
	if info.Timezone == "" {
		info.Timezone = "UTC"
	}
	return info
}
