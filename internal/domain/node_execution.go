package domain

import "time"

// NodeExecutionData — запись о выполнении одного узла.
type NodeExecutionData struct {
	NodeID   string `json:"node_id"`
	NodeName string `json:"node_name"`
	NodeType string `json:"node_type"`

	// ExecutedAt — момент начала выполнения узла.
	ExecutedAt time.Time `json:"executed_at"`

	// InputData — параметры после разрешения шаблонов.
	InputData map[string]any `json:"input_data,omitempty"`

	// OutputData — результат узла.
	OutputData any `json:"output_data,omitempty"`

	Status NodeStatus `json:"status"`
	Error  string     `json:"error,omitempty"`

	// ExecutionTimeMs — время выполнения, nil если узел не дошёл до execute.
	ExecutionTimeMs *int64 `json:"execution_time_ms,omitempty"`
}

// NewNodeExecution создаёт запись в статусе pending.
func NewNodeExecution(node *Node) NodeExecutionData {
	return NodeExecutionData{
		NodeID:     node.ID,
		NodeName:   node.DisplayName(),
		NodeType:   node.Type,
		ExecutedAt: time.Now().UTC(),
		Status:     NodeStatusPending,
	}
}

// Complete отмечает узел выполненным.
func (d *NodeExecutionData) Complete(output any, elapsed time.Duration) {
	d.Status = NodeStatusCompleted
	d.OutputData = output
	d.setElapsed(elapsed)
}

// Fail отмечает узел упавшим.
func (d *NodeExecutionData) Fail(message string, elapsed time.Duration) {
	d.Status = NodeStatusError
	d.Error = message
	d.setElapsed(elapsed)
}

func (d *NodeExecutionData) setElapsed(elapsed time.Duration) {
	ms := elapsed.Milliseconds()
	d.ExecutionTimeMs = &ms
}
