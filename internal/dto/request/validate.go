package request

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"chattix/pkg/errorx"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator 返回共享的校验器，读取 binding 标签，字段名取 json 标签
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.SetTagName("binding")
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate = v
	})
	return validate
}

// Validate 在发起网络请求前校验请求体
// 失败时返回 CodeInvalidParam，消息中列出出错字段
func Validate(req any) error {
	err := Validator().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+" "+fe.Tag())
		}
		return errorx.Wrapf(err, errorx.CodeInvalidParam, "invalid request: %s", strings.Join(fields, ", "))
	}
	return errorx.Wrap(err, errorx.CodeInvalidParam, "invalid request")
}
