package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/dazzle-tools/sesslog/internal/dispatch"
	"github.com/dazzle-tools/sesslog/internal/output"
	"github.com/dazzle-tools/sesslog/internal/state"
)

// SessionsCmd lists every recorded session.
type SessionsCmd struct{}

// Run executes the sessions command.
func (c *SessionsCmd) Run(globals *Globals) error {
	d, err := dispatch.New(globals.Config)
	if err != nil {
		return outputErrorCommon(globals, "ENGINE_INIT", err.Error())
	}

	all, err := d.Store().List()
	if err != nil {
		return outputErrorCommon(globals, "STATE_READ", err.Error())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt > all[j].UpdatedAt })

	if globals.Format == "ndjson" {
		w := output.NewNDJSONWriter(globals.Stdout)
		for _, st := range all {
			if err := w.WriteSession(&output.SessionRecord{
				SessionID: st.SessionID,
				Name:      st.Name,
				CWD:       st.CWD,
				LogDir:    st.LogDir,
				RunNumber: st.RunNumber,
				UpdatedAt: st.UpdatedAt,
			}); err != nil {
				return err
			}
		}
		return nil
	}

	if len(all) == 0 {
		fmt.Fprintln(globals.Stdout, "No sessions recorded yet.")
		return nil
	}

	rows := lo.Map(all, func(st *state.SessionState, _ int) []string {
		name := st.Name
		if name == "" {
			name = "(unnamed)"
		}
		return []string{st.SessionID, name, fmt.Sprintf("%d", st.RunNumber), st.CWD, st.UpdatedAt}
	})

	if stdoutIsTTY(globals) {
		table := tablewriter.NewTable(globals.Stdout)
		table.Header("SESSION", "NAME", "RUN", "CWD", "UPDATED")
		for _, row := range rows {
			if err := table.Append(row); err != nil {
				return err
			}
		}
		return table.Render()
	}

	for _, row := range rows {
		fmt.Fprintf(globals.Stdout, "%s\t%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3], row[4])
	}
	return nil
}

func stdoutIsTTY(globals *Globals) bool {
	f, ok := globals.Stdout.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
