package devgateway

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"chattix/internal/dto/request"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

var (
	// trans 校验错误翻译器
	trans     ut.Translator
	transOnce sync.Once
	transErr  error
)

// initTrans 让 gin 绑定与客户端共用 request.Validator()，并注册错误翻译
// locale 为 "en" 或 "zh"，只在首次调用时生效
func initTrans(locale string) error {
	transOnce.Do(func() {
		v := request.Validator()
		binding.Validator = &defaultValidator{validator: v}

		enT := en.New()
		zhT := zh.New()
		// 第一个参数是 fallback
		uni := ut.New(enT, enT, zhT)

		t, ok := uni.GetTranslator(locale)
		if !ok {
			transErr = fmt.Errorf("uni.GetTranslator(%s) failed", locale)
			return
		}
		switch locale {
		case "zh":
			transErr = zh_translations.RegisterDefaultTranslations(v, t)
		default:
			transErr = en_translations.RegisterDefaultTranslations(v, t)
		}
		trans = t
	})
	return transErr
}

// translate 翻译校验错误，去除结构体前缀后按字段排序拼接
func translate(errs validator.ValidationErrors) string {
	if trans == nil {
		return errs.Error()
	}
	fields := removeTopStruct(errs.Translate(trans))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fields[k])
	}
	return strings.Join(msgs, "; ")
}

// removeTopStruct 去除提示信息中的结构体名称（如 "SendMessageRequest.chat_id"）
func removeTopStruct(fields map[string]string) map[string]string {
	res := make(map[string]string, len(fields))
	for field, err := range fields {
		res[field[strings.Index(field, ".")+1:]] = err
	}
	return res
}

// defaultValidator 实现 binding.StructValidator
type defaultValidator struct {
	validator *validator.Validate
}

// ValidateStruct 只校验结构体（含指针），其余类型直接放行
func (v *defaultValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}
	return v.validator.Struct(obj)
}

func (v *defaultValidator) Engine() any {
	return v.validator
}
