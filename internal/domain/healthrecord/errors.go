package healthrecord

import "errors"

var ErrRecordNotFound = errors.New("health record not found")
