// Package api 内嵌后端 REST 接口描述（OpenAPI 3），供客户端契约测试使用
package api

import "embed"

//go:embed openapi/*.yaml
var OpenAPIFS embed.FS

// ConsoleSpecPath 控制台所依赖接口的描述文件
const ConsoleSpecPath = "openapi/console.yaml"

// ConsoleSpec 读取内嵌的接口描述
func ConsoleSpec() ([]byte, error) {
	return OpenAPIFS.ReadFile(ConsoleSpecPath)
}
