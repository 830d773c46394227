// Package main 启动应用程序
package main

import "github.com/uachado/uachado/pkg/cmd"

//	@title			UAchado API
//	@version		1.0
//	@description	UAchado 是大学失物招领服务：登记拾获物品、受理失物报告、匹配通知与物品领取.

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
