package cip

// lp.go: the seam between the variable core and an LP relaxation. The
// package does not solve LPs; it only keeps a variable's column in sync
// with its local bounds and objective, and resolves status chains when a
// variable is added to a row.

import "fmt"

// Column is the package's view of one LP column. Implementations mirror the
// variable's local bounds and objective coefficient into whatever LP data
// structure backs them. Methods are called after the corresponding change is
// committed on the variable.
type Column interface {
	SetLb(lb float64)
	SetUb(ub float64)
	SetObj(obj float64)
}

// Row is the package's view of one LP row. AddToRow resolves variable
// status chains down to these two operations.
type Row interface {
	// AddCoef adds coef to the coefficient of col in the row.
	AddCoef(col Column, coef float64)
	// AddConstant adds a constant contribution to the row's activity.
	AddConstant(c float64)
}

// ColumnFactory creates LP columns for loose variables entering the LP.
type ColumnFactory interface {
	NewColumn(v *Variable) Column
}

// MakeColumn moves a loose variable into the LP, creating its column via
// the factory and priming it with the current local bounds and objective.
// Panics if the variable is not loose.
func (v *Variable) MakeColumn(f ColumnFactory) Column {
	if _, ok := v.data.(looseData); !ok {
		panic(fmt.Sprintf("cip: cannot create column for %s variable <%s>", v.Status(), v.name))
	}
	col := f.NewColumn(v)
	col.SetLb(v.locDom.lb)
	col.SetUb(v.locDom.ub)
	col.SetObj(v.obj)
	v.data = columnData{col: col}
	v.prob.stats.countColumn()
	v.logger().Debug().Msg("entered LP")
	return col
}

// MakeLoose takes a column variable back out of the LP. The column object
// is dropped; bounds and objective stay on the variable. Panics if the
// variable is not a column.
func (v *Variable) MakeLoose() {
	if _, ok := v.data.(columnData); !ok {
		panic(fmt.Sprintf("cip: cannot remove %s variable <%s> from the LP", v.Status(), v.name))
	}
	v.data = looseData{}
	v.logger().Debug().Msg("left LP")
}

// Col returns the variable's LP column, or nil if it has none.
func (v *Variable) Col() Column {
	if cd, ok := v.data.(columnData); ok {
		return cd.col
	}
	return nil
}

// AddToRow adds coef times the variable to the row, resolving the status
// chain: fixed variables contribute a constant, aggregated and negated
// variables forward the scaled coefficient to their referenced variable,
// multi-aggregated variables distribute over their terms, and loose
// variables are pulled into the LP first. Returns an error only if column
// creation is impossible because no factory is available.
func (v *Variable) AddToRow(row Row, coef float64, f ColumnFactory) error {
	switch d := v.data.(type) {
	case originalData:
		if d.transVar == nil {
			return fmt.Errorf("Variable: original variable <%s> has no transformed counterpart", v.name)
		}
		return d.transVar.AddToRow(row, coef, f)
	case looseData:
		if f == nil {
			return fmt.Errorf("Variable: loose variable <%s> needs a column factory to enter a row", v.name)
		}
		col := v.MakeColumn(f)
		row.AddCoef(col, coef)
		return nil
	case columnData:
		row.AddCoef(d.col, coef)
		return nil
	case fixedData:
		row.AddConstant(coef * v.glbDom.lb)
		return nil
	case aggregatedData:
		row.AddConstant(coef * d.constant)
		return d.aggVar.AddToRow(row, coef*d.scalar, f)
	case multAggrData:
		row.AddConstant(coef * d.constant)
		for i, av := range d.vars {
			if err := av.AddToRow(row, coef*d.scalars[i], f); err != nil {
				return err
			}
		}
		return nil
	case negatedData:
		row.AddConstant(coef * d.offset)
		return d.negVar.AddToRow(row, -coef, f)
	default:
		panic(fmt.Sprintf("cip: unknown status of variable <%s>", v.name))
	}
}
