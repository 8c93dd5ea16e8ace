package sagaengine

import "errors"

// errStepFailed signals, internally to run, that a forward step persisted a
// FAILED outcome and the engine should proceed to compensation. It never
// escapes run: any other error aborts the execution immediately (the
// VERSION_CONFLICT case of spec §4.6's failure-category table — "engine
// aborts; the instance owning the row wins").
var errStepFailed = errors.New("sagaengine: step failed")
