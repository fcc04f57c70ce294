package plugin

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// ParseParamsFromStruct 从结构体的 param tag 解析参数定义
// 支持的 tag 键: name, required, default, description
//
// 示例:
//
//	type EntityParams struct {
//	    Table      string   `param:"name=table,required=false,default=,description=表名"`
//	    PrimaryKey []string `param:"name=primary_key,required=false,default=,description=主键字段，逗号分隔"`
//	}
func ParseParamsFromStruct(v any) []ParamDef {
	typ := reflect.TypeOf(v)
	if typ == nil {
		return nil
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}

	var params []ParamDef
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("param")
		if tag == "" {
			continue
		}
		if def := parseParamTag(tag); def.Name != "" {
			params = append(params, def)
		}
	}
	return params
}

// parseParamTag 解析 param tag 字符串
// 格式: name=xxx,required=true,default=xxx,description=xxx
// description 必须放在最后，其内容可以包含逗号
func parseParamTag(tag string) ParamDef {
	var param ParamDef

	rest := tag
	for rest != "" {
		var pair string
		if strings.HasPrefix(rest, "description=") {
			pair, rest = rest, ""
		} else {
			pair, rest, _ = strings.Cut(rest, ",")
		}
		key, value, _ := strings.Cut(pair, "=")
		switch strings.TrimSpace(key) {
		case "name":
			param.Name = value
		case "required":
			param.Required = cast.ToBool(value)
		case "default":
			param.Default = value
		case "description":
			param.Description = value
		}
	}

	return param
}

// ParseAnnotationParams 将注解的参数解析到目标结构体中
// target 必须是结构体指针；注解中缺失或为空的参数使用 paramDefs 中的默认值
func ParseAnnotationParams(annotation *Annotation, target any, paramDefs []ParamDef) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("参数目标必须是非 nil 指针, 得到: %T", target)
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("参数目标必须指向结构体, 得到: %T", target)
	}

	defaults := lo.SliceToMap(paramDefs, func(def ParamDef) (string, ParamDef) {
		return def.Name, def
	})

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		fieldVal := val.Field(i)
		if !fieldVal.CanSet() {
			continue
		}
		tag := typ.Field(i).Tag.Get("param")
		if tag == "" {
			continue
		}
		name := parseParamTag(tag).Name
		if name == "" {
			continue
		}

		value := annotation.GetParam(name)
		if value == "" {
			if def, ok := defaults[name]; ok {
				value = def.Default
			}
			if value == "" && !annotation.HasParam(name) {
				if def, ok := defaults[name]; ok && def.Required {
					return fmt.Errorf("@%s 缺少必填参数 %s", annotation.Name, name)
				}
			}
		}

		if err := setFieldValue(fieldVal, value); err != nil {
			return fmt.Errorf("@%s 参数 %s=%q 无效: %w", annotation.Name, name, value, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值，支持基本类型和逗号分隔的 []string
func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("不支持的切片类型 %s", field.Type())
		}
		items := lo.FilterMap(strings.Split(value, ","), func(s string, _ int) (string, bool) {
			s = strings.TrimSpace(s)
			return s, s != ""
		})
		field.Set(reflect.ValueOf(items))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if value == "" {
			field.SetInt(0)
			return nil
		}
		n, err := cast.ToInt64E(value)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if value == "" {
			field.SetUint(0)
			return nil
		}
		n, err := cast.ToUint64E(value)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Bool:
		if value == "" {
			field.SetBool(false)
			return nil
		}
		b, err := cast.ToBoolE(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Float32, reflect.Float64:
		if value == "" {
			field.SetFloat(0)
			return nil
		}
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("不支持的字段类型 %s", field.Type())
	}
	return nil
}
