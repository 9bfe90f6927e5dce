package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ToolFields 描述一次查找或安装涉及的工具坐标。
func ToolFields(name, version, arch string) logrus.Fields {
	return logrus.Fields{
		"tool":    name,
		"version": version,
		"arch":    arch,
	}
}

// DownloadFields 提供下载地址与来源字段，供 install 日志复用。
func DownloadFields(url, source string) logrus.Fields {
	return logrus.Fields{
		"url":    url,
		"source": source,
	}
}

// RequestFields 提供 serve 接口的访问日志字段。
func RequestFields(requestID, method, path string, status int) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     status,
	}
}
