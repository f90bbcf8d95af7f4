package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"tekken-tracker/internal/notifier"
	"tekken-tracker/internal/report"
	"tekken-tracker/internal/service"

	"github.com/spf13/cobra"
	"github.com/syohex/go-texttable"
)

var (
	recentMatches int
	historyLimit  int
	reportDate    string
)

func init() {
	playerCmd.Flags().IntVar(&recentMatches, "recent", 10, "Number of recent matches to include")
	rankHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of rank changes to show")
	dailyCmd.Flags().StringVar(&reportDate, "date", "", "Report date (YYYY-MM-DD), defaults to today")

	rootCmd.AddCommand(healthCmd, playersCmd, playerCmd, rankHistoryCmd, dailyCmd, weeklyCmd, metricsCmd)
}

var httpClient = &http.Client{Timeout: 15 * time.Second}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := get("/health", nil)
		if err != nil {
			return err
		}
		return printJSON(body)
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List the tracked players",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := get("/players", nil)
		if err != nil || rawJSON {
			return printOr(body, err)
		}
		var players []service.PlayerSummary
		if err := json.Unmarshal(body, &players); err != nil {
			return fmt.Errorf("failed to decode players: %w", err)
		}

		tbl := &texttable.TextTable{}
		_ = tbl.SetHeader("Player", "Rank", "Main", "Matches", "WR", "Streak")
		for _, p := range players {
			_ = tbl.AddRow(p.Name, orDash(p.CurrentRank), orDash(p.MainCharacter),
				strconv.Itoa(p.Matches), strconv.FormatFloat(p.WinRate, 'f', 1, 64)+"%", streak(p))
		}
		fmt.Print(tbl.Draw())
		return nil
	},
}

var playerCmd = &cobra.Command{
	Use:   "player <name>",
	Short: "Show the profile and recent matches of a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{"recent": {strconv.Itoa(recentMatches)}}
		body, err := get("/players/"+url.PathEscape(args[0]), q)
		return printOr(body, err)
	},
}

var rankHistoryCmd = &cobra.Command{
	Use:   "rank-history <name>",
	Short: "Show the recorded rank changes of a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{"limit": {strconv.Itoa(historyLimit)}}
		body, err := get("/players/"+url.PathEscape(args[0])+"/rank-history", q)
		return printOr(body, err)
	},
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Preview the daily report without sending it",
	RunE: func(cmd *cobra.Command, args []string) error {
		var q url.Values
		if reportDate != "" {
			q = url.Values{"date": {reportDate}}
		}
		body, err := get("/reports/daily", q)
		if err != nil || rawJSON {
			return printOr(body, err)
		}
		var daily report.Daily
		if err := json.Unmarshal(body, &daily); err != nil {
			return fmt.Errorf("failed to decode daily report: %w", err)
		}
		if len(daily.Entries) == 0 {
			fmt.Printf("Nobody played on %s.\n", daily.Date)
			return nil
		}
		fmt.Printf("Daily report %s\n\n%s\n", daily.Date, notifier.DailyTable(&daily))
		printLines(notifier.DailyAwardLines(&daily))
		return nil
	},
}

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Preview the weekly report for the last seven days",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := get("/reports/weekly/preview", nil)
		if err != nil || rawJSON {
			return printOr(body, err)
		}
		var weekly report.Weekly
		if err := json.Unmarshal(body, &weekly); err != nil {
			return fmt.Errorf("failed to decode weekly report: %w", err)
		}
		if len(weekly.Entries) == 0 {
			fmt.Println("Nobody played this week.")
			return nil
		}
		fmt.Printf("Weekly report %s to %s\n\n%s\n", weekly.From.Format(time.DateOnly), weekly.To.Format(time.DateOnly),
			notifier.WeeklyTable(&weekly))
		for _, e := range weekly.Entries {
			fmt.Println(e.Player)
			if h := notifier.WeeklyHighlights(e); h != "" {
				printLines(strings.Split(h, "\n"))
			}
		}
		printLines(notifier.WeeklyAwardLines(&weekly))
		return nil
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Dump the Prometheus metrics of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := get("/metrics", nil)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(body)
		return err
	},
}

func get(path string, query url.Values) ([]byte, error) {
	u := host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	resp, err := httpClient.Get(u)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return nil, fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(body))
	}
	return body, nil
}

func printOr(body []byte, err error) error {
	if err != nil {
		return err
	}
	return printJSON(body)
}

func printJSON(body []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		_, werr := os.Stdout.Write(body)
		return werr
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(os.Stdout)
	return err
}

func printLines(lines []string) {
	for _, l := range lines {
		fmt.Println("  " + l)
	}
	fmt.Println()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func streak(p service.PlayerSummary) string {
	switch {
	case p.WinStreak > 0:
		return "W" + strconv.Itoa(p.WinStreak)
	case p.LossStreak > 0:
		return "L" + strconv.Itoa(p.LossStreak)
	}
	return "-"
}
