package cmdutil

import (
	"fmt"
	"io"

	"github.com/mpapenbr/simresults-indexer/pkg/config"
	"github.com/mpapenbr/simresults-indexer/pkg/utils/jsonquery"
)

// Print writes v as indented JSON to w. The --query flag selects parts of
// the output with a JSONPath expression.
func Print(w io.Writer, v any) error {
	out, err := jsonquery.Apply(v, config.Query)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
