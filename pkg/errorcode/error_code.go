package errorcode

import "fmt"

const (
	// CodeNotFound 表示资源未找到。Service 层收到的错误中若是这样的错误信息则表示是资源未找到，而非链码运行出错。
	CodeNotFound = "~NOTFOUND~"
	// CodeForbidden 表示参数被理解，但无权进行操作。链上策略重放未通过时链码返回这样的错误信息。
	CodeForbidden = "~FORBIDDEN~"
	// CodeNotImplemented 是个在这个项目中约定俗成的代号。Service 层收到错误中若是这样的错误信息则表示是暂时未实现的功能而非链码运行出错。
	CodeNotImplemented = "~NOTIMPLEMENTED~"
)

// ErrorNotFound 为使用了 `CodeNotFound` 的 error 实例
var ErrorNotFound = fmt.Errorf(CodeNotFound)

// ErrorForbidden 为使用了 `CodeForbidden` 的 error 实例
var ErrorForbidden = fmt.Errorf(CodeForbidden)

// ErrorNotImplemented 为使用了 `CodeNotImplemented` 的 error 实例
var ErrorNotImplemented = fmt.Errorf(CodeNotImplemented)

// 以下为密文库（vault）协议各环节的预定义错误。调用方应按值比较（可经
// errors.Cause 剥除 wrap 层），不得靠错误信息字符串判断种类。

// ErrorEnvelopeCorrupt 表示密文信封不自洽（门限大于托管方数量、字段长度不对等）。
// 解析阶段即应返回此错误，不进行任何网络调用。
var ErrorEnvelopeCorrupt = fmt.Errorf("信封不合法或已损坏")

// ErrorUnsignedCredential 表示会话凭证未经钱包签名，不可用于任何下游调用。
var ErrorUnsignedCredential = fmt.Errorf("会话凭证未签名")

// ErrorCredentialExpired 表示会话凭证已过期。
var ErrorCredentialExpired = fmt.Errorf("会话凭证已过期")

// ErrorNotAuthorized 表示链上策略重放未通过：请求者既非记录属主，也不持有
// 覆盖该记录的未过期授权凭证。
var ErrorNotAuthorized = fmt.Errorf("链上策略检查未通过，无权访问该资源")

// ErrorInsufficientShares 表示在门限解密中收集到的有效份额数量少于门限值。
var ErrorInsufficientShares = fmt.Errorf("密钥份额数量不足，未达到解密门限")

// ErrorThresholdMismatch 表示信封中记录的门限与协议调用所期望的门限不一致。
// 这是致命错误，意味着信封被篡改或组装有误，不应重试。
var ErrorThresholdMismatch = fmt.Errorf("信封门限与协议参数不一致")

// ErrorDecryptFailed 表示份额数量充足但本地聚合解密失败，密文与身份标识不一致。
// 此错误不应盲目重试。
var ErrorDecryptFailed = fmt.Errorf("本地门限解密失败")

// ErrorInvalidTTL 表示请求的会话凭证有效期超出上限。创建时即拒绝，不静默截断。
var ErrorInvalidTTL = fmt.Errorf("会话凭证有效期不合法")
