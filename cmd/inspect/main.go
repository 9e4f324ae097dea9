package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/mathpilot/internal/memory"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to mathpilot.db")
	session := flag.String("session", "", "show one session's interaction log")
	last := flag.Int("last", 50, "max interactions / learning examples to show")
	learned := flag.Bool("learned", false, "show recorded learning examples")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/mathpilot.db [--session id] [--last N] [--learned] [--json]")
		os.Exit(2)
	}

	store, err := memory.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *learned:
		err = runLearnedMode(store, *last, *jsonOut)
	case *session != "":
		err = runSessionMode(store, *session, *last, *jsonOut)
	default:
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region session-mode

func runSessionMode(store *memory.Store, sessionID string, last int, jsonOut bool) error {
	hist, err := store.History(sessionID, last)
	if err != nil {
		return err
	}
	if len(hist) == 0 {
		fmt.Fprintln(os.Stderr, "no interactions found")
		return nil
	}

	if jsonOut {
		return printJSON(hist)
	}

	fmt.Printf("%-6s  %-10s  %-24s  %s\n", "ID", "Role", "Time", "Content")
	fmt.Printf("%-6s+-%-10s+-%-24s+-%s\n", "------", "----------", "------------------------", "--------------------")
	for _, it := range hist {
		fmt.Printf("%-6d  %-10s  %-24s  %s\n",
			it.ID, it.Role, it.CreatedAt.Format("2006-01-02T15:04:05Z"), snippet(it.Content, 100))
	}
	return nil
}

// #endregion session-mode

// #region list-mode

type sessionRow struct {
	SessionID string `json:"session_id"`
	Count     int    `json:"interactions"`
	Last      string `json:"last_activity"`
}

func runListMode(store *memory.Store, last int, jsonOut bool) error {
	rows, err := store.DB().Query(
		`SELECT s.session_id, COUNT(i.id), MAX(i.created_at)
		 FROM sessions s LEFT JOIN interactions i ON i.session_id = s.session_id
		 GROUP BY s.session_id ORDER BY s.updated_at DESC LIMIT ?`, last,
	)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []sessionRow
	for rows.Next() {
		var r sessionRow
		var lastAt *string
		if err := rows.Scan(&r.SessionID, &r.Count, &lastAt); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if lastAt != nil {
			r.Last = *lastAt
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(out) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("%-36s  %6s  %s\n", "Session", "Steps", "Last Activity")
	fmt.Printf("%-36s+-%6s+-%s\n", "------------------------------------", "------", "------------------------")
	for _, r := range out {
		fmt.Printf("%-36s  %6d  %s\n", r.SessionID, r.Count, r.Last)
	}
	return nil
}

// #endregion list-mode

// #region learned-mode

func runLearnedMode(store *memory.Store, last int, jsonOut bool) error {
	examples, err := store.ListLearningExamples(last)
	if err != nil {
		return err
	}
	if len(examples) == 0 {
		fmt.Fprintln(os.Stderr, "no learning examples found")
		return nil
	}

	if jsonOut {
		return printJSON(examples)
	}

	fmt.Printf("%-16s  %-16s  %-40s  %s\n", "Example", "Outcome", "Problem", "Answer")
	fmt.Printf("%-16s+-%-16s+-%-40s+-%s\n", "----------------", "----------------",
		"----------------------------------------", "--------------------")
	for _, ex := range examples {
		fmt.Printf("%-16s  %-16s  %-40s  %s\n",
			ex.ExampleID, ex.Outcome, snippet(ex.Problem, 40), snippet(ex.Answer, 30))
	}
	return nil
}

// #endregion learned-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// #endregion output
