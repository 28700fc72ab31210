package task

// Project folds an ordered operation sequence into a keyed task map. It is a
// pure function of its input: callers must not retain a mutable reference
// into the result and mutate it outside of a fresh Project call over an
// appended log — the log is the only source of truth for task state.
func Project(ops []Operation) map[string]*Task {
	tasks := make(map[string]*Task)
	for _, op := range ops {
		applyOperation(tasks, op)
	}
	return tasks
}

func applyOperation(tasks map[string]*Task, op Operation) {
	switch op.Kind {
	case OpCreate:
		applyCreate(tasks, op)
	case OpUpdate:
		applyUpdate(tasks, op)
	case OpLink:
		applyLink(tasks, op)
	case OpRelate:
		applyRelate(tasks, op)
	}
}

func applyCreate(tasks map[string]*Task, op Operation) {
	if op.Task == nil {
		return
	}
	if _, exists := tasks[op.Task.ID]; exists {
		// unique_id violates at the validator layer; the projector itself
		// stays permissive and simply keeps the first writer's copy.
		return
	}
	tasks[op.Task.ID] = op.Task.Clone()
}

func applyUpdate(tasks map[string]*Task, op Operation) {
	t, ok := tasks[op.ID]
	if !ok || op.Changes == nil {
		return
	}
	c := op.Changes
	if c.Type != nil {
		t.Type = *c.Type
	}
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.Status != nil {
		t.Status = *c.Status
	}
	if c.CompletedAt != nil {
		completedAt := *c.CompletedAt
		t.CompletedAt = &completedAt
	}
	if c.Parent != nil {
		t.Parent = *c.Parent
	}
	if c.BlockedBy != nil {
		t.BlockedBy = append([]string(nil), c.BlockedBy...)
	}
	if c.Aggregate != nil {
		t.Aggregate = *c.Aggregate
	}
	if c.Domain != nil {
		t.Domain = *c.Domain
	}
	if c.Tags != nil {
		t.Tags = append([]string(nil), c.Tags...)
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.Complexity != nil {
		t.Complexity = *c.Complexity
	}
	if c.Estimate != nil {
		t.Estimate = *c.Estimate
	}
	if c.Actual != nil {
		t.Actual = *c.Actual
	}
	if c.Spec != nil {
		t.Spec = *c.Spec
	}
	if c.Completion != nil {
		completion := *c.Completion
		t.Completion = &completion
	}
	t.UpdatedAt = op.Timestamp
}

func applyLink(tasks map[string]*Task, op Operation) {
	t, ok := tasks[op.ID]
	if !ok {
		return
	}
	t.ExternalID = op.ExternalID
	t.ExternalURL = op.ExternalURL
	t.UpdatedAt = op.Timestamp
}

func applyRelate(tasks map[string]*Task, op Operation) {
	t, ok := tasks[op.ID]
	if !ok {
		return
	}
	switch op.Relation {
	case RelationParent:
		t.Parent = op.TargetID
	case RelationSubtask:
		t.Subtasks = appendUnique(t.Subtasks, op.TargetID)
	case RelationBlocks:
		t.Blocks = appendUnique(t.Blocks, op.TargetID)
	case RelationBlockedBy:
		t.BlockedBy = appendUnique(t.BlockedBy, op.TargetID)
	default:
		return
	}
	t.UpdatedAt = op.Timestamp
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
