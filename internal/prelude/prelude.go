// Package prelude embeds the canonical Church-encoding demo file spec.md
// §8's scenarios are stated against, so those scenarios are runnable
// rather than merely described.
package prelude

import _ "embed"

//go:embed stt/prelude.stt
var Source string

// Filename is the synthetic path reported in diagnostics for declarations
// coming from the embedded prelude.
const Filename = "<prelude>"
