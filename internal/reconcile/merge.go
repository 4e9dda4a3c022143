package reconcile

// MergeExternal splices the externally sourced items of remote into local.
// Every external item already in local is dropped, manual items keep their
// order, and the remote external items go first.
func MergeExternal(local, remote []ExpenseItem) []ExpenseItem {
	out := make([]ExpenseItem, 0, len(local)+len(remote))
	for _, item := range remote {
		if item.Source.IsExternal() {
			out = append(out, item)
		}
	}
	for _, item := range local {
		if !item.Source.IsExternal() {
			out = append(out, item)
		}
	}
	return out
}

// MergeExternalExpenses applies MergeExternal to every collection.
func MergeExternalExpenses(local, remote Expenses) Expenses {
	var out Expenses
	for _, kind := range ExpenseKinds {
		*out.List(kind) = MergeExternal(*local.List(kind), *remote.List(kind))
	}
	return out
}

// ExternalOnly keeps the externally sourced items of every collection.
func ExternalOnly(e Expenses) Expenses {
	return MergeExternalExpenses(Expenses{}, e)
}
