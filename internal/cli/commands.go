package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dracory/flatbridge/console"
	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/types"
)

func newTablesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := s.console.Export().RefreshTables(cmd.Context())
			if err != nil {
				return err
			}
			return renderList(cmd.OutOrStdout(), tables)
		},
	}
}

func newSchemaCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := s.console.Export().Catalog().FetchSchema(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderColumns(cmd.OutOrStdout(), desc)
		},
	}
}

func newPreviewCmd(s *session) *cobra.Command {
	var columns, joins []string
	cmd := &cobra.Command{
		Use:   "preview <table> [table...]",
		Short: "Select a table and show its first rows",
		Long: `With one table and no flags, selects it and shows its first rows.
With --columns, shows those columns over the listed tables, which --join
connects. A join is written [TYPE:]left.column=right.column, TYPE being
INNER (default), LEFT, RIGHT or FULL.`,
		Example: `  flatbridge preview orders
  flatbridge preview orders customers --columns customers.city,orders.total \
    --join LEFT:orders.customer=customers.name`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf := s.console.Export()
			if len(args) == 1 && len(columns) == 0 && len(joins) == 0 {
				if err := wf.SelectTable(cmd.Context(), args[0]); err != nil {
					return err
				}
				return renderResult(cmd.OutOrStdout(), wf.State().Result)
			}

			req := types.PreviewRequest{Tables: args, Columns: columns}
			for _, expr := range joins {
				j, err := parseJoin(expr)
				if err != nil {
					return err
				}
				req.JoinConditions = append(req.JoinConditions, j)
			}
			res, err := wf.PreviewJoin(cmd.Context(), req)
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to show, as column or table.column")
	cmd.Flags().StringArrayVar(&joins, "join", nil, "join condition [TYPE:]left.column=right.column (repeatable)")
	return cmd
}

func parseJoin(expr string) (types.JoinCondition, error) {
	var j types.JoinCondition
	rest := expr
	if kind, cond, ok := strings.Cut(expr, ":"); ok {
		j.JoinType, rest = strings.ToUpper(strings.TrimSpace(kind)), cond
	}
	left, right, ok := strings.Cut(rest, "=")
	if !ok {
		return j, fmt.Errorf("%w: join %q needs left.column=right.column", console.ErrMissingField, expr)
	}
	var okL, okR bool
	j.LeftTable, j.LeftColumn, okL = strings.Cut(strings.TrimSpace(left), ".")
	j.RightTable, j.RightColumn, okR = strings.Cut(strings.TrimSpace(right), ".")
	if !okL || !okR || j.LeftColumn == "" || j.RightColumn == "" {
		return j, fmt.Errorf("%w: join %q needs left.column=right.column", console.ErrMissingField, expr)
	}
	return j, nil
}

func newQueryCmd(s *session) *cobra.Command {
	var table, file string
	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Run a query and print the rows",
		Long: `Runs the query text verbatim on the store. With --table the rows are
paired with that table's columns, otherwise they are numbered.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				text = string(b)
			}

			wf := s.console.Export()
			if table != "" {
				if err := wf.SelectTable(cmd.Context(), table); err != nil {
					return err
				}
			}
			res, err := wf.RunQuery(cmd.Context(), text)
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "", "table whose columns name the result")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the query from a file")
	return cmd
}

func newExportCmd(s *session) *cobra.Command {
	var format string
	var columns []string
	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Download a table as CSV or XLSX",
		Long: `Saves <table>.<format> into the --out directory. --columns limits the
export to those columns, in schema order; the default is every column.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf := s.console.Export()
			if err := wf.SelectTable(cmd.Context(), args[0]); err != nil {
				return err
			}
			if len(columns) > 0 {
				st := wf.State()
				for _, c := range columns {
					if !slices.Contains(st.Selection.Declared(), c) {
						return fmt.Errorf("%w: %s has no column %q", console.ErrMissingField, args[0], c)
					}
				}
				for _, c := range st.Selection.Projected() {
					if !slices.Contains(columns, c) {
						wf.Toggle(c)
					}
				}
			}
			if _, err := wf.Export(cmd.Context(), format); err != nil {
				return err
			}
			renderBanner(cmd.OutOrStdout(), wf.State().Banner)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", constants.FormatCSV, "csv or xlsx")
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "columns to export")
	return cmd
}

func newIngestCmd(s *session) *cobra.Command {
	var table, delimiter string
	var columns []string
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Load a CSV or XLSX file into a table",
		Long: `Uploads the file to infer its columns, then ingests the chosen columns
into --table, creating it when absent. The table defaults to the file name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if table == "" {
				table = console.FileBuffer{Name: args[0]}.SuggestedTable()
			}
			wf := s.console.Ingest()
			wf.SetDelimiter(delimiter)
			wf.SetTableName(table)
			if err := wf.SelectFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			st := wf.State()
			fmt.Fprintln(cmd.OutOrStdout(), st.Banner.Text)

			if len(columns) == 0 {
				wf.SelectAllColumns()
			}
			for _, c := range columns {
				if !slices.Contains(st.Selection.Declared(), c) {
					return fmt.Errorf("%w: file has no column %q", console.ErrMissingField, c)
				}
				wf.Toggle(c)
			}
			if _, err := wf.Ingest(cmd.Context()); err != nil {
				return err
			}
			renderBanner(cmd.OutOrStdout(), wf.State().Banner)
			return nil
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "", "destination table")
	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", constants.DefaultDelimiter, `field delimiter; "\t" or "tab" for tabs`)
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "columns to ingest (default all)")
	return cmd
}

func newPingCmd(s *session) *cobra.Command {
	p := console.DefaultProfile()
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Ask the server to connect to a ClickHouse instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := s.console
			c.SetProfile(p.WithToken(c.Profile().Token).WithProtocol(p.Protocol))
			msg, err := c.TestConnection(cmd.Context())
			if err != nil {
				return err
			}
			renderBanner(cmd.OutOrStdout(), console.Banner{Kind: console.BannerInfo, Text: msg + ": " + c.Profile().String()})
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.Host, "host", p.Host, "ClickHouse host")
	f.IntVar(&p.Port, "port", p.Port, "ClickHouse HTTP port")
	f.StringVar(&p.Database, "database", p.Database, "database")
	f.StringVar(&p.User, "user", p.User, "user")
	f.StringVar(&p.Secret, "password", p.Secret, "password")
	f.StringVar(&p.Protocol, "protocol", p.Protocol, "http or https")
	return cmd
}

func newLoginCmd(s *session) *cobra.Command {
	var noVerify bool
	cmd := &cobra.Command{
		Use:   "login [token]",
		Short: "Store a bearer token in the OS keychain",
		Long: `Stores the token given as argument, or read from stdin, after checking it
against the server. Tokens are issued with 'flatbridge-server token <subject>'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("empty token")
			}

			if !noVerify {
				s.token = token
				if err := s.connect(); err != nil {
					return err
				}
				if _, err := s.console.Export().RefreshTables(cmd.Context()); err != nil {
					return fmt.Errorf("token rejected: %w", err)
				}
			}
			if err := s.opts.tokens.Save(token); err != nil {
				return err
			}
			renderBanner(cmd.OutOrStdout(), console.Banner{Kind: console.BannerInfo, Text: "token stored"})
			return nil
		},
	}
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "store without checking the token against the server")
	return cmd
}

func newLogoutCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.opts.tokens.Delete(); err != nil {
				return err
			}
			renderBanner(cmd.OutOrStdout(), console.Banner{Kind: console.BannerInfo, Text: "token removed"})
			return nil
		},
	}
}
