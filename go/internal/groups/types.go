package groups

import "github.com/mcdev12/tiforama/go/internal/models"

// GroupServiceName is the fully-qualified name of the group RPC service.
const GroupServiceName = "tiforama.group.v1.GroupService"

const (
	ListGroupsProcedure  = "/" + GroupServiceName + "/ListGroups"
	CreateGroupProcedure = "/" + GroupServiceName + "/CreateGroup"
)

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []models.Group `json:"groups"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CreateGroupResponse struct {
	Group models.Group `json:"group"`
}
