package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rbergm/diploma-thesis/internal/config"
	"github.com/rbergm/diploma-thesis/internal/hint"
	"github.com/rbergm/diploma-thesis/internal/selector"
	"github.com/rbergm/diploma-thesis/internal/workload"
)

// addHintFlags registers the flags that shape hint generation. Values are
// read back through the config package, not from variables.
func addHintFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("mode", "m", config.ModeUESIdxNLJ, fmt.Sprintf("kind of hints to produce (%s)", strings.Join(config.ValidModes, "|")))
	f.String("idx-target", selector.DefaultIdxTarget.String(), "subquery join partner implemented as IndexScan (pk|fk)")
	f.String("nlj-scope", string(selector.DefaultNLJScope), "joins per subquery to hint: innermost only or all (first|all)")
	f.Bool("strip-empty", true, "emit no comment for queries without hints")
	f.String("renderer", hint.DefaultRenderer, fmt.Sprintf("hint dialect (%s)", strings.Join(hint.RendererNames(), "|")))
	f.String("catalog", "", "schema catalog (.yaml or .cue); empty uses the id/<table>_id naming convention")
}

// addWorkloadFlags registers the batch flags of the generate command.
func addWorkloadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("out", "o", "out.csv", "CSV file to write the hinted workload to")
	f.String("query-col", "query", "CSV column containing the workload queries")
	f.String("hint-col", "hint", "CSV column to write the generated hints to")
	f.Int("workers", runtime.NumCPU(), "number of queries processed concurrently")
	f.String("on-error", string(workload.OnErrorEmpty), fmt.Sprintf("handling of failed rows (%s)", strings.Join(workload.ValidOnError, "|")))
	f.String("db", "", "SQLite run log to record this batch in (optional)")
}
