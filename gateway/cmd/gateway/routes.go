package main

import (
	"github.com/spf13/cobra"

	"github.com/lotuspetal/lotuspetal-api/gateway/internal/cli/output"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/routes"
)

type routeRow struct {
	Name     string   `json:"name" yaml:"name"`
	Methods  string   `json:"methods" yaml:"methods"`
	Path     string   `json:"path" yaml:"path"`
	Shortcut string   `json:"shortcut,omitempty" yaml:"shortcut,omitempty"`
	Aliases  []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Timeout  string   `json:"timeout" yaml:"timeout"`
	Relaxed  bool     `json:"relaxed,omitempty" yaml:"relaxed,omitempty"`
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the public route table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := routes.Table()
		rows := make([]routeRow, 0, len(table))
		for _, rt := range table {
			rows = append(rows, routeRow{
				Name:     rt.Name,
				Methods:  rt.MethodList(),
				Path:     rt.Path,
				Shortcut: rt.Shortcut,
				Aliases:  rt.Aliases,
				Timeout:  rt.Timeout.String(),
				Relaxed:  rt.Relaxed,
			})
		}

		p := printer(cmd)
		if done, err := p.Structured(rows); done {
			return err
		}

		t := output.NewTable("Name", "Methods", "Path", "Shortcut", "Timeout")
		for _, r := range rows {
			shortcut := r.Shortcut
			if shortcut == "" {
				shortcut = "-"
			}
			t.AddRow(r.Name, r.Methods, r.Path, shortcut, r.Timeout)
		}
		t.Render(p.Out)
		return nil
	},
}
