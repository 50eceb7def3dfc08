package mem

import "time"

// timeNow is indirected so tests can substitute a fixed clock without
// reaching into catalog internals.
var timeNow = time.Now
