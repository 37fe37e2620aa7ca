package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apictx/apictx/internal/apierr"
	"github.com/apictx/apictx/internal/config"
	"github.com/apictx/apictx/internal/index"
)

var (
	queryFQN        string
	queryApprox     string
	queryLimit      int
	queryKind       string
	queryVisibility string
	queryOwner      string
)

var queryCmd = &cobra.Command{
	Use:   "query DB",
	Short: "Look up symbols in an extracted index",
	Long: "Queries the SQLite index produced by extract. --fqn performs an exact\n" +
		"lookup and prints the stored symbol; --approx ranks candidates by\n" +
		"trigram overlap and prints one symbol per line.",
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryFQN, "fqn", "", "exact fully qualified name lookup")
	queryCmd.Flags().StringVar(&queryApprox, "approx", "", "approximate name search")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 20, "maximum number of approximate hits")
	queryCmd.Flags().StringVar(&queryKind, "kind", "", "keep only hits of this kind")
	queryCmd.Flags().StringVar(&queryVisibility, "visibility", "", "keep only hits with this visibility")
	queryCmd.Flags().StringVar(&queryOwner, "owner", "", "keep only hits owned by this FQN")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if (queryFQN == "") == (queryApprox == "") {
		return &exitError{code: 2, msg: "exactly one of --fqn or --approx is required"}
	}

	st, err := index.Open(args[0])
	if err != nil {
		fmt.Println(apierr.Newf(apierr.CodeQuery, args[0], "open index: %v", err).Error())
		return &exitError{code: 1}
	}
	defer st.Close()

	if queryFQN != "" {
		sym, err := st.GetByFQN(queryFQN)
		if err != nil {
			fmt.Println(apierr.Newf(apierr.CodeQuery, queryFQN, "lookup: %v", err).Error())
			return &exitError{code: 1}
		}
		if sym == nil {
			fmt.Println(apierr.New(apierr.CodeQuery, queryFQN, "not found").Error())
			return &exitError{code: 1}
		}
		fmt.Println(string(sym.Data))
		return nil
	}

	cfg := config.Load(".")
	hits, err := st.SearchApprox(queryApprox, index.Query{
		Limit:          queryLimit,
		Kind:           queryKind,
		Visibility:     queryVisibility,
		Owner:          queryOwner,
		OverfetchFloor: cfg.EffectiveOverfetchFloor(),
	})
	if err != nil {
		fmt.Println(apierr.Newf(apierr.CodeQuery, queryApprox, "search: %v", err).Error())
		return &exitError{code: 1}
	}
	// One stored symbol object per line, ranked.
	for _, h := range hits {
		fmt.Println(string(h.Data))
	}
	return nil
}
