// Package model provides the workcell domain types for the pricing engine.
//
// This package contains type definitions and read-only accessors only.
// All other internal packages import model; model imports nothing internal.
// This keeps the domain description the foundational layer with no
// circular dependencies.
//
// Key design constraints:
//   - Param is a closed sum type (UserNumber, CostNumber, TablePick)
//   - A workcell has at most one choice parameter
//   - Workcells without a choice use the literal choice value "DEFAULT"
//   - Definitions and CostIndex are immutable once built and safe for
//     concurrent readers
//   - All JSON tags use snake_case
package model
