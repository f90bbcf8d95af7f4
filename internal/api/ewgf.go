package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tekken-tracker/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

type EwgfProfile struct {
	Rank          string
	MainCharacter string
	MatchupStats  map[string]domain.MatchupStat
	SkillProfile  map[string]float64
	Matches       []domain.MatchRecord
}

const rankedBattle = "RANKED_BATTLE"

var mainCharRe = regexp.MustCompile(`\\?"mainChar\\?":\s*\{\\?"([^"\\]+)`)

type ewgfMatchup struct {
	Wins         int     `json:"wins"`
	TotalMatches int     `json:"totalMatches"`
	WinRate      float64 `json:"winRate"`
}

type ewgfBattle struct {
	BattleType  string `json:"battleType"`
	BattleAt    string `json:"battleAt"`
	Winner      int    `json:"winner"`
	P1PolarisID string `json:"p1PolarisId"`
	P2PolarisID string `json:"p2PolarisId"`
	P1Name      string `json:"p1Name"`
	P2Name      string `json:"p2Name"`
	P1Char      string `json:"p1Char"`
	P2Char      string `json:"p2Char"`
	P1DanRank   any    `json:"p1DanRank"`
	P2DanRank   any    `json:"p2DanRank"`
	P1Rounds    int    `json:"p1RoundsWon"`
	P2Rounds    int    `json:"p2RoundsWon"`
}

type ewgfStats struct {
	MainChar         map[string]json.RawMessage `json:"mainChar"`
	PlayedCharacters map[string]map[string]struct {
		AllTimeMatchups map[string]ewgfMatchup `json:"allTimeMatchups"`
	} `json:"playedCharacters"`
	StatPentagonData map[string]any `json:"statPentagonData"`
	PlayerMetadata   struct {
		PolarisID string `json:"polarisId"`
	} `json:"playerMetadata"`
	Battles []ewgfBattle `json:"battles"`
}

// ParseEwgf extracts rank, main character, matchups, stat pentagon and ranked battles from an
// ewgf player page. The stats live in a JSON object embedded in one of the page scripts.
func ParseEwgf(html []byte) (*EwgfProfile, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ewgf page: %w", err)
	}

	profile := &EwgfProfile{}

	doc.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		alt := strings.TrimSpace(img.AttrOr("alt", ""))
		if rank, ok := cutSuffixFold(alt, " rank icon"); ok {
			profile.Rank = strings.TrimSpace(rank)
			return false
		}
		return true
	})

	if m := mainCharRe.FindSubmatch(html); m != nil {
		profile.MainCharacter = string(m[1])
	}

	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		text := script.Text()
		idx := strings.Index(text, "playerStats")
		if idx < 0 {
			return true
		}
		raw, ok := balancedObject(text, idx)
		if !ok {
			return true
		}

		var stats ewgfStats
		if err := json.Unmarshal([]byte(strings.ReplaceAll(raw, `\"`, `"`)), &stats); err != nil {
			return true
		}
		applyStats(profile, &stats)

		// keep looking until a block with the pentagon shows up
		return len(profile.SkillProfile) == 0
	})

	return profile, nil
}

func applyStats(profile *EwgfProfile, stats *ewgfStats) {
	if profile.MainCharacter == "" {
		for char := range stats.MainChar {
			profile.MainCharacter = char
			break
		}
	}

	if profile.MainCharacter != "" {
		if ranked, ok := stats.PlayedCharacters[profile.MainCharacter][rankedBattle]; ok && len(ranked.AllTimeMatchups) > 0 {
			profile.MatchupStats = make(map[string]domain.MatchupStat, len(ranked.AllTimeMatchups))
			for char, m := range ranked.AllTimeMatchups {
				profile.MatchupStats[char] = domain.MatchupStat{Wins: m.Wins, TotalMatches: m.TotalMatches, WinRate: m.WinRate}
			}
		}
	}

	if len(stats.StatPentagonData) > 0 {
		profile.SkillProfile = make(map[string]float64, len(stats.StatPentagonData))
		for name, v := range stats.StatPentagonData {
			if f, ok := v.(float64); ok {
				profile.SkillProfile[name] = f
			}
		}
	}

	var matches []domain.MatchRecord
	for _, b := range stats.Battles {
		if rec, ok := b.record(stats.PlayerMetadata.PolarisID); ok {
			matches = append(matches, rec)
		}
	}
	if len(matches) > 0 {
		profile.Matches = matches
	}
}

func (b ewgfBattle) record(viewer string) (domain.MatchRecord, bool) {
	if b.BattleType != rankedBattle || viewer == "" {
		return domain.MatchRecord{}, false
	}

	var side int
	rec := domain.MatchRecord{Source: domain.SourceEwgf}
	switch viewer {
	case b.P1PolarisID:
		side = 1
		rec.CharacterPlayed, rec.CharacterOpponent = b.P1Char, b.P2Char
		rec.OpponentName, rec.OpponentRank = b.P2Name, danRank(b.P2DanRank)
		rec.Score = fmt.Sprintf("%d-%d", b.P1Rounds, b.P2Rounds)
	case b.P2PolarisID:
		side = 2
		rec.CharacterPlayed, rec.CharacterOpponent = b.P2Char, b.P1Char
		rec.OpponentName, rec.OpponentRank = b.P1Name, danRank(b.P1DanRank)
		rec.Score = fmt.Sprintf("%d-%d", b.P2Rounds, b.P1Rounds)
	default:
		return domain.MatchRecord{}, false
	}

	rec.Result = domain.ResultLoss
	if b.Winner == side {
		rec.Result = domain.ResultWin
	}

	if at, err := time.Parse(time.RFC3339, b.BattleAt); err == nil {
		rec.Timestamp = at.Unix()
	}

	return rec, rec.Valid()
}

func danRank(v any) string {
	switch r := v.(type) {
	case string:
		return r
	case float64:
		idx := int(r)
		if idx >= 0 && idx < len(domain.RankTiers) {
			return domain.RankTiers[idx]
		}
		return strconv.Itoa(idx)
	}
	return ""
}

// balancedObject returns the first {...} after from in text, matching nested braces.
func balancedObject(text string, from int) (string, bool) {
	start := strings.IndexByte(text[from:], '{')
	if start < 0 {
		return "", false
	}
	start += from

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func cutSuffixFold(s, suffix string) (string, bool) {
	if len(s) < len(suffix) || !strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s, false
	}
	return s[:len(s)-len(suffix)], true
}
