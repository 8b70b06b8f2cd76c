package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/printer"
	"github.com/goto/salt/term"
	"github.com/spf13/cobra"

	"github.com/goto/vfsearch/core/search"
	"github.com/goto/vfsearch/core/user"
	"github.com/goto/vfsearch/pkg/telemetry"
)

type readerFlags struct {
	id       string
	groups   []string
	siteRoot string
	timeWarp string
}

func (f *readerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "user", "guest", "reader the search runs for")
	cmd.Flags().StringSliceVar(&f.groups, "group", nil, "groups of the reader")
	cmd.Flags().StringVar(&f.siteRoot, "site-root", "", "site root of the reader, e.g. /sites/default")
	cmd.Flags().StringVar(&f.timeWarp, "time-warp", "", "preview instant, e.g. 2024-05-01 or 2024-05-01T08:00:00Z")
}

func (f *readerFlags) user() (user.User, error) {
	usr := user.User{ID: f.id, Groups: f.groups, SiteRoot: f.siteRoot}
	if f.timeWarp != "" {
		t, err := parseInstant(f.timeWarp)
		if err != nil {
			return user.User{}, fmt.Errorf("invalid time warp: %w", err)
		}
		usr.TimeWarp = t
	}
	if err := usr.Validate(); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

type searchFlags struct {
	reader       readerFlags
	fields       []string
	fieldQueries []string
	roots        []string
	categories   []string
	types        []string
	created      string
	lastModified string
	page         int
	pageSize     int
	sort         []string
	filters      []string
	handler      string
	facets       []string
	output       string
}

func (f *searchFlags) request(text string) (search.Request, error) {
	req := search.Request{
		Query:         text,
		Fields:        f.fields,
		Roots:         f.roots,
		Categories:    f.categories,
		ResourceTypes: f.types,
		Page:          f.page,
		PageSize:      f.pageSize,
		HandlerType:   f.handler,
		FacetFields:   f.facets,
	}
	for _, s := range f.fieldQueries {
		fq, err := parseFieldQuery(s)
		if err != nil {
			return search.Request{}, err
		}
		req.FieldQueries = append(req.FieldQueries, fq)
	}
	for _, s := range f.filters {
		fc, err := parseFilterClause(s)
		if err != nil {
			return search.Request{}, err
		}
		req.Filters = append(req.Filters, fc)
	}
	for _, s := range f.sort {
		req.Sort = append(req.Sort, parseSortField(s))
	}

	var err error
	if req.Created, err = parseDateRange(f.created); err != nil {
		return search.Request{}, err
	}
	if req.LastModified, err = parseDateRange(f.lastModified); err != nil {
		return search.Request{}, err
	}
	return req, nil
}

func searchCommand(cfg *Config) *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search the index as a reader",
		Annotations: map[string]string{
			"group:core": "true",
		},
		Args: cobra.MaximumNArgs(1),
		Example: heredoc.Doc(`
			$ vfsearch search "annual report" --page 1 --page-size 10
			$ vfsearch search --field-query "title:must:report" --field-query "content:budget"
			$ vfsearch search report --site-root /sites/default --root /news/ --group staff
			$ vfsearch search report --filter +lang:en --sort -lastmodified --facet category
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) > 0 {
				text = args[0]
			}
			req, err := flags.request(text)
			if err != nil {
				return err
			}
			usr, err := flags.reader.user()
			if err != nil {
				return err
			}

			spinner := printer.Spin("")
			defer spinner.Stop()

			d, err := initDeps(cmd.Context(), cfg, depsOption{engine: true, database: cfg.Index.CheckPermissions})
			if err != nil {
				return err
			}
			defer d.Close()

			svc, err := d.searchService()
			if err != nil {
				return err
			}

			ctx, end := telemetry.StartTransaction(cmd.Context(), d.nrApp, "cli.search")
			defer end()

			page, err := svc.Search(user.NewContext(ctx, usr), req)
			if err != nil {
				return err
			}
			spinner.Stop()

			if flags.output == "json" {
				fmt.Println(term.Bluef(prettyPrint(page)))
				return nil
			}
			printPage(page)
			return nil
		},
	}

	flags.reader.register(cmd)
	cmd.Flags().StringSliceVar(&flags.fields, "field", nil, "restrict the text to these fields")
	cmd.Flags().StringArrayVar(&flags.fieldQueries, "field-query", nil, "field:[must|should|must_not:]query, repeatable")
	cmd.Flags().StringSliceVar(&flags.roots, "root", nil, "site relative folders to search below")
	cmd.Flags().StringSliceVar(&flags.categories, "category", nil, "required categories")
	cmd.Flags().StringSliceVar(&flags.types, "type", nil, "required resource types")
	cmd.Flags().StringVar(&flags.created, "created", "", "creation date range from..to, either bound may be empty")
	cmd.Flags().StringVar(&flags.lastModified, "modified", "", "modification date range from..to, either bound may be empty")
	cmd.Flags().IntVar(&flags.page, "page", 0, "1-based page, 0 returns every hit")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "hits per page")
	cmd.Flags().StringSliceVar(&flags.sort, "sort", nil, "sort fields, prefix with - for descending")
	cmd.Flags().StringArrayVar(&flags.filters, "filter", nil, "[+|-]field:value extra filter, repeatable")
	cmd.Flags().StringVar(&flags.handler, "handler", "", "engine handler type, e.g. best_fields")
	cmd.Flags().StringSliceVar(&flags.facets, "facet", nil, "fields to count values of")
	cmd.Flags().StringVarP(&flags.output, "out", "o", "table", "output format, table or json")
	return cmd
}

func printPage(page search.Page) {
	fmt.Printf("%s\n\n", term.Greenf("%d visible hits", page.Total))

	rows := [][]string{{"SCORE", "PATH", "TYPE", "LAST MODIFIED"}}
	for _, e := range page.Entries {
		modified := ""
		if !e.LastModified.IsZero() {
			modified = e.LastModified.Format(time.RFC3339)
		}
		rows = append(rows, []string{strconv.Itoa(e.Score) + "%", e.Path, e.Type, modified})
	}
	printer.Table(os.Stdout, rows)

	for _, f := range page.Facets {
		fmt.Printf("\n%s\n", term.Cyanf("%s", f.Field))
		for _, v := range f.Values {
			fmt.Printf("  %s (%d)\n", v.Value, v.Count)
		}
	}
}
