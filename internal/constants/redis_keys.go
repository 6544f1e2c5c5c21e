package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "career"

	// QueryModulePrefix 推荐查询模块
	QueryModulePrefix = "query"
	// SessionModulePrefix 会话模块
	SessionModulePrefix = "session"

	// EntityVector 向量实体
	EntityVector = "vector"
	// EntityBookmarks 收藏集合实体
	EntityBookmarks = "bookmarks"

	// KeyQueryVector 查询文本向量缓存 (HASH: vector, model_version)
	// 格式: career:query:vector:{sha256(text)}
	KeyQueryVector = AppPrefix + ":" + QueryModulePrefix + ":" + EntityVector + ":%s"

	// KeySessionBookmarks 会话收藏集合 (SET)
	// 格式: career:session:bookmarks:{sessionID}
	KeySessionBookmarks = AppPrefix + ":" + SessionModulePrefix + ":" + EntityBookmarks + ":%s"
)
