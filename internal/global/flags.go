package global

// ShowTimingLogs 控制是否在 Debug 日志中输出各环节的计时信息。由配置文件
// 中的 `showTimingLogs` 项在启动时赋值。
var ShowTimingLogs bool
