package domain

import "github.com/aretw0/cadence/pkg/expr"

// RootID is the id of the distinguished root entity.
const RootID = 0

// Conventional variable names used across documents and the default root.
const (
	VarStartTime     = "startTime"
	VarDuration      = "duration"
	VarFrequency     = "frequency"
	VarTempo         = expr.BaseVarTempo
	VarMeasureLength = expr.BaseVarMeasureLength
)
