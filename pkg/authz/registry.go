package authz

const (
	RoleContractAdmin = "contract-admin"
	RoleOperator      = "operator"
	RoleAnonymous     = "anonymous"
)

const (
	ActionRead  = "read"
	ActionAdmin = "admin"
	ActionDebug = "debug"
)

const DomainGlobal = "global"

const (
	ObjectSceneContract   = "scene.contract"
	ObjectSceneChannel    = "scene.channel"
	ObjectSceneVisibility = "scene.visibility"
	ObjectSceneCapability = "scene.capability"
	ObjectSceneRegistry   = "scene.registry"
)
