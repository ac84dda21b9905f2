package compute

import "corral"

// Ownership labels stamped on every container the manager creates. A
// container holding the instance's name without these labels is foreign
// infrastructure and is never mutated.
const (
	labelManaged  = "corral.managed"
	labelInstance = "corral.instance"
	labelTarget   = "corral.target"

	labelManagedValue = "true"
)

// ownershipLabels builds the label set for a new instance container.
func ownershipLabels(t corral.InstanceTemplate) map[string]string {
	return map[string]string{
		labelManaged:  labelManagedValue,
		labelInstance: t.InstanceID,
		labelTarget:   t.Target,
	}
}

// ownedBy reports whether a label set marks a container as this manager's
// container for the given instance id.
func ownedBy(labels map[string]string, instanceID string) bool {
	return labels[labelManaged] == labelManagedValue && labels[labelInstance] == instanceID
}

// deriveStatus reconstructs the lifecycle state from a live inspect. The
// engine is the source of truth; status is never cached or persisted.
func deriveStatus(detail ContainerDetail, instanceID string) corral.InstanceStatus {
	switch {
	case !detail.Exists:
		return corral.StatusNotCreated
	case !ownedBy(detail.Labels, instanceID):
		return corral.StatusForeign
	case detail.Running:
		return corral.StatusRunning
	default:
		return corral.StatusStopped
	}
}
