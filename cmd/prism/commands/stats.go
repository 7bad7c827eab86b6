package commands

import (
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/prism/internal/record"
)

// statsTopCompanies caps the companies table.
const statsTopCompanies = 10

// statsTypeOrder fixes the row order of the record-type table.
var statsTypeOrder = []string{
	record.TypeCommit,
	record.TypeReview,
	record.TypePatch,
	record.TypeMark,
	record.TypeEmail,
	record.TypeBlueprintDrafted,
	record.TypeBlueprintCompleted,
	record.TypeMember,
}

// StatsCommand holds flags for the stats command.
type StatsCommand struct {
	configPath string
	verbose    bool
}

// NewStatsCommand creates the stats command, which summarizes the store
// contents.
func NewStatsCommand() *cobra.Command {
	sc := &StatsCommand{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the store contents",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}

	cmd.Flags().StringVarP(&sc.configPath, "config", "c", "", "Config file path")
	cmd.Flags().BoolVarP(&sc.verbose, "verbose", "v", false, "Verbose output")

	return cmd
}

func (sc *StatsCommand) run(cmd *cobra.Command, _ []string) error {
	rt, rtErr := openRuntime(sc.configPath, sc.verbose)
	if rtErr != nil {
		return rtErr
	}
	defer rt.Close()

	byType := make(map[string]int)
	byCompany := make(map[string]int)
	total := 0

	for rec, err := range rt.store.AllRecords() {
		if err != nil {
			return err
		}

		byType[rec.Type]++
		total++

		if rec.CompanyName != "" {
			byCompany[rec.CompanyName]++
		}
	}

	users := 0

	for _, err := range rt.store.AllUsers() {
		if err != nil {
			return err
		}

		users++
	}

	out := cmd.OutOrStdout()
	title := color.New(color.FgCyan, color.Bold)

	_, _ = title.Fprintln(out, "Records")

	typeTable := table.NewWriter()
	typeTable.SetOutputMirror(out)
	typeTable.AppendHeader(table.Row{"Type", "Count"})

	for _, recordType := range statsTypeOrder {
		typeTable.AppendRow(table.Row{recordType, humanize.Comma(int64(byType[recordType]))})
	}

	typeTable.AppendFooter(table.Row{"total", humanize.Comma(int64(total))})
	typeTable.Render()

	_, _ = title.Fprintln(out, "\nTop companies")

	companies := make([]string, 0, len(byCompany))
	for company := range byCompany {
		companies = append(companies, company)
	}

	sort.Slice(companies, func(i, j int) bool {
		if byCompany[companies[i]] != byCompany[companies[j]] {
			return byCompany[companies[i]] > byCompany[companies[j]]
		}

		return companies[i] < companies[j]
	})

	if len(companies) > statsTopCompanies {
		companies = companies[:statsTopCompanies]
	}

	companyTable := table.NewWriter()
	companyTable.SetOutputMirror(out)
	companyTable.AppendHeader(table.Row{"Company", "Records"})

	for _, company := range companies {
		companyTable.AppendRow(table.Row{company, humanize.Comma(int64(byCompany[company]))})
	}

	companyTable.Render()

	_, _ = title.Fprintln(out, "\nUsers")
	_, _ = color.New(color.FgWhite).Fprintf(out, "%s known users\n", humanize.Comma(int64(users)))

	return nil
}
