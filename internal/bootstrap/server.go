package bootstrap

import (
	appconfig "career-guide-go/internal/config"
	"career-guide-go/internal/constants"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
)

// ServerOptions Hertz 服务端基础选项。默认 4MB 的请求体上限小于档案上传上限，需显式放宽
func ServerOptions(cfg *appconfig.Config) []config.Option {
	return []config.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithMaxRequestBodySize(constants.MaxRequestBodySize),
	}
}
