package astidvb

import "github.com/asticode/go-astikit"

// Section parsers are pure functions, they only need a logger to let the developer know when an unlisted
// descriptor has been found in the stream, therefore we use a global one
var logger = astikit.AdaptStdLogger(nil)

func SetLogger(l astikit.StdLogger) { logger = astikit.AdaptStdLogger(l) }
