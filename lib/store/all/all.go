// Package all is a meta-package that imports all store implementations so
// their factories are registered.
package all

import (
	_ "github.com/corvidlabs/brochure/lib/store/bbolt"
	_ "github.com/corvidlabs/brochure/lib/store/memory"
	_ "github.com/corvidlabs/brochure/lib/store/valkey"
)
