package scoring

import "github.com/EvanTenenbaum/TERP-sub019/internal/domain/model"

// ErrInsufficientData is returned when too few signals are known.
var ErrInsufficientData = model.ErrInsufficientData
