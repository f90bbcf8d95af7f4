package api

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tekken-tracker/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

type WavuProfile struct {
	Rating  *float64
	Matches []domain.MatchRecord
}

var (
	printDateTimeRe = regexp.MustCompile(`printDateTime\((\d+)\)`)
	nonNumericRe    = regexp.MustCompile(`[^\d.]`)
)

// ParseWavu extracts the rating and replay rows from a wavu wiki player page. Rows that cannot be
// read are skipped.
func ParseWavu(html []byte) (*WavuProfile, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse wavu page: %w", err)
	}

	profile := &WavuProfile{}

	if text := nonNumericRe.ReplaceAllString(strings.TrimSpace(doc.Find(".mu").First().Text()), ""); text != "" {
		if mu, err := strconv.ParseFloat(text, 64); err == nil {
			profile.Rating = &mu
		}
	}

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		cellHTML, err := goquery.OuterHtml(cells.Eq(0))
		if err != nil {
			return
		}
		var ts int64
		if m := printDateTimeRe.FindStringSubmatch(cellHTML); m != nil {
			ts, _ = strconv.ParseInt(m[1], 10, 64)
		}

		score := strings.TrimSpace(cells.Eq(2).Text())
		rec := domain.MatchRecord{
			Timestamp:       ts,
			Result:          resultFromScore(score),
			Score:           score,
			OpponentName:    strings.TrimSpace(cells.Eq(3).Find(".player a").First().Text()),
			CharacterPlayed: strings.TrimSpace(cells.Eq(1).Find(".char").First().Text()),
			Source:          domain.SourceWavu,
		}
		if rec.Valid() {
			profile.Matches = append(profile.Matches, rec)
		}
	})

	return profile, nil
}

// resultFromScore reads "mine-theirs". Anything else, including a draw, is UNKNOWN.
func resultFromScore(score string) domain.Result {
	mine, theirs, ok := domain.MatchRecord{Score: score}.Rounds()
	switch {
	case !ok:
		return domain.ResultUnknown
	case mine > theirs:
		return domain.ResultWin
	case mine < theirs:
		return domain.ResultLoss
	}
	return domain.ResultUnknown
}
