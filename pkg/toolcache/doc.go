// Package toolcache 提供按 <root>/<name>/<version>/<arch>/ 约定组织的本地工具缓存。
//
// 查找支持模糊版本（版本号中的 x 视为通配）与任意架构；Install 负责把发布产物
// 下载并解包到对应目录。根目录解析顺序为：显式指定、RUNNER_TOOL_CACHE、
// 默认候选目录、当前目录下的 .toolcache。
package toolcache
