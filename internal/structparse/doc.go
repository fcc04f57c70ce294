// Package structparse 是实体分析使用的成员解析器
//
// 它按目录加载一个包的全部源文件（跳过测试文件和本工具生成的文件），
// 并提供三类查询：
//
//  1. Struct - 结构体字段，展开匿名嵌入与 lite:"embedded" 字段，浅层字段遮蔽深层同名字段
//  2. Methods - 类型上声明的方法以及从匿名嵌入类型提升的方法，附带注解与签名
//  3. Interface - 接口方法（含同模块内的嵌入接口），附带注解与签名
//
// 文件按名称排序后解析，方法按文件顺序、源码位置排列，结果稳定可复现。
// 跨包的嵌入类型只在同一个 go module 内解析。
//
// # 基本用法
//
//	loader := structparse.NewLoader()
//	info, err := loader.Struct("./model", "User")
//	if err != nil {
//	    return err
//	}
//	for _, f := range info.Fields {
//	    fmt.Println(strings.Join(f.Path, "."), f.Type)
//	}
package structparse
